package provider

import (
	"sort"
	"strings"
)

// CreateFlags indicate specific provider behaviors to activate or deactivate
type CreateFlags int32

var createFlagsMapping = make(map[CreateFlags]string)

func (f CreateFlags) Register(str string) {
	createFlagsMapping[f] = str
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	var known CreateFlags
	for flag, name := range createFlagsMapping {
		if f&flag == flag {
			names = append(names, name)
			known |= flag
		}
	}
	sort.Strings(names)

	if f&^known != 0 {
		names = append(names, "UnknownFlags")
	}

	return strings.Join(names, "|")
}

const (
	// CreateExternallySynchronized ensures that the provider will not be synchronized internally. The
	// consumer must guarantee it is used from only one goroutine at a time or is synchronized by some
	// other mechanism, but performance may improve because internal mutexes are not used.
	CreateExternallySynchronized CreateFlags = 1 << iota
)

func init() {
	CreateExternallySynchronized.Register("CreateExternallySynchronized")
}
