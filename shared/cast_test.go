package shared_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/ownership/provider"
	"github.com/vkngwrapper/ownership/shared"
)

type base struct {
	id int
}

type derived struct {
	base
	name      string
	destroyed *int
}

func (d *derived) Destroy() {
	*d.destroyed++
}

func asBase(d *derived) *base {
	return &d.base
}

func TestUpcastSharesCount(t *testing.T) {
	destroyed := 0
	d, err := shared.Make(shared.Value(derived{base: base{id: 7}, name: "derived", destroyed: &destroyed}))
	require.NoError(t, err)

	b := shared.Upcast(d, asBase)
	require.Equal(t, 2, d.UseCount())
	require.Equal(t, 2, b.UseCount())
	require.Equal(t, 7, b.Get().id)
	require.Same(t, &d.Get().base, b.Get())
	require.True(t, b.Owns(&d))

	clone := b.Clone()
	require.Equal(t, 3, d.UseCount())
	require.Equal(t, 3, b.UseCount())

	d.Release()
	clone.Release()
	require.Equal(t, 0, destroyed)

	// The derived value is destroyed through the base view
	b.Release()
	require.Equal(t, 1, destroyed)
}

func TestUpcastWeak(t *testing.T) {
	destroyed := 0
	d, err := shared.Make(shared.Value(derived{base: base{id: 2}, destroyed: &destroyed}))
	require.NoError(t, err)

	weak := d.Weak()
	baseWeak := shared.UpcastWeak(weak, asBase)
	weak.Release()

	locked := baseWeak.Lock()
	require.Equal(t, 2, locked.Get().id)
	require.Equal(t, 2, d.UseCount())
	locked.Release()

	d.Release()
	require.True(t, baseWeak.Expired())

	expired := shared.UpcastWeak(shared.Weak[derived]{}, asBase)
	require.True(t, expired.IsEmpty())

	baseWeak.Release()
	require.Equal(t, 1, destroyed)
}

func TestUpcastEmpty(t *testing.T) {
	var d shared.Ptr[derived]
	b := shared.Upcast(d, asBase)
	require.True(t, b.IsEmpty())
}

type document struct {
	title string
	pages []int
}

func TestAliasKeepsOwnerAlive(t *testing.T) {
	recorder := provider.NewRecorder(nil)

	owner, err := shared.Allocate(recorder, shared.Value(document{title: "aliased", pages: []int{1, 2, 3}}))
	require.NoError(t, err)

	title := shared.Alias(owner, &owner.Get().title)
	require.Equal(t, 2, owner.UseCount())
	require.True(t, title.Owns(&owner))

	owner.Release()
	require.Equal(t, 1, title.UseCount())
	require.Equal(t, "aliased", *title.Get())
	require.Equal(t, 0, recorder.FreeCalls())

	weak := title.Weak()
	title.Release()
	require.True(t, weak.Expired())
	weak.Release()

	require.Equal(t, 1, recorder.FreeCalls())
	require.Equal(t, 0, recorder.Live())
}

func TestAliasEmptyOwner(t *testing.T) {
	var owner shared.Ptr[document]
	value := "unowned"

	alias := shared.Alias(owner, &value)
	require.True(t, alias.IsEmpty())
	require.Nil(t, alias.Get())
}
