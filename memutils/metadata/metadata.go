package metadata

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/ownership/memutils"
)

// BlockMetadata represents a single contiguous range of bytes handed out in pieces by a memory provider.
// It tracks which sub-ranges are reserved and which are free, allowing reservations to be requested and
// released, as well as enumerated and queried.
type BlockMetadata interface {
	// Init must be called before the BlockMetadata is used. It sizes the managed range to size bytes
	// and marks the whole range as free.
	Init(size int)
	// Size retrieves the size in bytes that the block was initialized with
	Size() int

	// Validate performs internal consistency checks on the metadata. These checks may be expensive, depending
	// on the implementation. When the implementation is functioning correctly, it should not be possible
	// for this method to return an error, but this may assist in diagnosing issues with the implementation.
	Validate() error
	// AllocationCount returns the number of reservations currently live in the implementation.
	AllocationCount() int
	// FreeRegionsCount returns the number of unique regions of free memory in the block. Adjacent
	// free regions are always merged, so two free regions are never neighbors.
	FreeRegionsCount() int
	// SumFreeSize returns the number of free bytes of memory in the block.
	SumFreeSize() int
	// IsEmpty will return true if this block has no live reservations
	IsEmpty() bool

	// VisitAllRegions will call the provided callback once for each reservation and free region in
	// the block, in order of offset.
	VisitAllRegions(handleBlock func(handle BlockAllocationHandle, offset int, size int, userData any, free bool) error) error

	// AllocationOffset accepts a BlockAllocationHandle that maps to a live reservation and returns its
	// offset in bytes within the block.
	AllocationOffset(allocHandle BlockAllocationHandle) (int, error)
	// AllocationUserData accepts a BlockAllocationHandle that maps to a live reservation
	// and returns the userdata value provided by the consumer for that reservation.
	AllocationUserData(allocHandle BlockAllocationHandle) (any, error)
	// SetAllocationUserData replaces the userdata of a live reservation.
	SetAllocationUserData(allocHandle BlockAllocationHandle, userData any) error

	// AddDetailedStatistics sums this block's statistics into the provided memutils.DetailedStatistics object.
	AddDetailedStatistics(stats *memutils.DetailedStatistics)
	// AddStatistics sums this block's statistics into the provided memutils.Statistics object.
	AddStatistics(stats *memutils.Statistics)

	// Clear instantly frees all reservations
	Clear()
	// BlockJsonData populates a json object with information about this block
	BlockJsonData(json *jwriter.ObjectState)

	// CreateAllocationRequest retrieves an AllocationRequest object indicating where the implementation
	// would place a reservation of allocSize bytes aligned to allocAlignment. The returned boolean is
	// false when no free region can hold the reservation. The request can be passed to Alloc to commit it.
	CreateAllocationRequest(allocSize int, allocAlignment uint, strategy AllocationStrategy) (bool, AllocationRequest, error)
	// Alloc commits an AllocationRequest object and returns the handle of the new reservation. Every
	// committed reservation receives a handle that has never been used in this block, so a handle kept
	// past its Free can never name a later reservation. The implementation must return an error if the
	// request no longer describes a free region able to hold it.
	Alloc(request AllocationRequest, userData any) (BlockAllocationHandle, error)
	// Free releases a reservation, causing it to become a free region once again.
	//
	// The implementation must return an error if the provided handle does not map to a live reservation
	// within this block.
	Free(allocHandle BlockAllocationHandle) error
}

// BlockMetadataBase is a simple struct that provides a few shared utilities for BlockMetadata
// implementations in the memutils module.
type BlockMetadataBase struct {
	size int
}

// Init sizes the block in bytes based on the parameter size.
func (m *BlockMetadataBase) Init(size int) {
	m.size = size
}

// Size returns the size of the block in bytes
func (m *BlockMetadataBase) Size() int { return m.size }

// WriteBlockJsonData populates a json object with the summary fields shared by all block implementations
func (m *BlockMetadataBase) WriteBlockJsonData(json *jwriter.ObjectState, unusedBytes, allocationCount, unusedRangeCount int) {
	json.Name("TotalBytes").Int(m.Size())
	json.Name("UnusedBytes").Int(unusedBytes)
	json.Name("Allocations").Int(allocationCount)
	json.Name("UnusedRanges").Int(unusedRangeCount)
}
