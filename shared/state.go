package shared

import "fmt"

// BlockState is the lifecycle stage of a control block
type BlockState int32

const (
	// BlockStateLive means at least one Ptr refers to the block and the value has not been destroyed
	BlockStateLive BlockState = iota
	// BlockStateObjectDestroyed means the value has been destroyed but Weak handles still refer to the block
	BlockStateObjectDestroyed
	// BlockStateDeallocated means the block's reservation has been returned to its provider
	BlockStateDeallocated
)

var blockStateMapping = map[BlockState]string{
	BlockStateLive:            "BlockStateLive",
	BlockStateObjectDestroyed: "BlockStateObjectDestroyed",
	BlockStateDeallocated:     "BlockStateDeallocated",
}

func (s BlockState) String() string {
	str, ok := blockStateMapping[s]
	if !ok {
		return fmt.Sprintf("BlockState(%d)", int32(s))
	}

	return str
}
