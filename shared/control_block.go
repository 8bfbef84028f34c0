package shared

import (
	"github.com/anacrolix/chansync"
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/ownership/memutils"
)

// controlBlock is implemented by separateBlock and coLocatedBlock
type controlBlock interface {
	memutils.Validatable
	counts() *blockCounts
	// destroyObject runs the value's destruction strategy. It is called exactly once, when the
	// shared count reaches zero.
	destroyObject()
	// deallocateSelf returns the block's reservation to its provider. It is called exactly once,
	// after destroyObject, when both counts are zero.
	deallocateSelf()
}

type blockCounts struct {
	shared     int
	weak       int
	state      BlockState
	destroying bool
	destroyed  chansync.SetOnce
}

func (c *blockCounts) counts() *blockCounts {
	return c
}

func (c *blockCounts) Validate() error {
	if c.shared < 0 {
		return errors.Errorf("shared count is negative: %d", c.shared)
	}
	if c.weak < 0 {
		return errors.Errorf("weak count is negative: %d", c.weak)
	}

	switch c.state {
	case BlockStateLive:
		if c.shared == 0 {
			return errors.New("live block has no owners")
		}
	case BlockStateObjectDestroyed:
		if c.shared != 0 {
			return errors.Newf("block with a destroyed object has %d owners", c.shared)
		}
		if !c.destroying && !c.destroyed.IsSet() {
			return errors.New("block with a destroyed object has not signalled destruction")
		}
	case BlockStateDeallocated:
		if c.shared != 0 || c.weak != 0 {
			return errors.Newf("deallocated block still has %d owners and %d observers", c.shared, c.weak)
		}
	default:
		return errors.Newf("unknown block state: %s", c.state)
	}

	return nil
}

func acquireShared(cb controlBlock) {
	c := cb.counts()
	if c.state != BlockStateLive {
		panic(errors.Newf("attempted to take ownership of a block in state %s", c.state))
	}

	c.shared++
	memutils.DebugValidate(cb)
}

func acquireWeak(cb controlBlock) {
	c := cb.counts()
	if c.state == BlockStateDeallocated {
		panic(errors.New("attempted to observe a deallocated block"))
	}

	c.weak++
	memutils.DebugValidate(cb)
}

func releaseShared(cb controlBlock) {
	c := cb.counts()
	if c.shared < 1 {
		panic(errors.Newf("released an owner of a block in state %s with no owners", c.state))
	}

	c.shared--
	if c.shared > 0 {
		memutils.DebugValidate(cb)
		return
	}

	// The value's destruction may release Weak handles to this same block. Those releases must not
	// deallocate the block out from under destroyObject.
	c.state = BlockStateObjectDestroyed
	c.destroying = true
	cb.destroyObject()
	c.destroying = false
	c.destroyed.Set()
	memutils.DebugValidate(cb)

	if c.weak == 0 {
		deallocate(cb)
	}
}

func releaseWeak(cb controlBlock) {
	c := cb.counts()
	if c.weak < 1 {
		panic(errors.Newf("released an observer of a block in state %s with no observers", c.state))
	}

	c.weak--
	if c.weak == 0 && c.state == BlockStateObjectDestroyed && !c.destroying {
		deallocate(cb)
		return
	}

	memutils.DebugValidate(cb)
}

func deallocate(cb controlBlock) {
	cb.counts().state = BlockStateDeallocated
	memutils.DebugValidate(cb)
	cb.deallocateSelf()
}
