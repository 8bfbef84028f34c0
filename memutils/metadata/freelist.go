package metadata

import (
	"fmt"
	"sync"

	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/ownership/memutils"
)

var regionAllocator = sync.Pool{
	New: func() any {
		return &freeListRegion{}
	},
}

type freeListRegion struct {
	offset int
	size   int
	free   bool

	prevPhysical *freeListRegion
	nextPhysical *freeListRegion

	userData     any
	regionHandle BlockAllocationHandle
}

// FreeListBlockMetadata is a BlockMetadata implementation that keeps every region of the block, free or
// reserved, in a single list ordered by offset. Freed regions are merged with free neighbors immediately,
// so the list never contains two adjacent free regions.
//
// It is a good fit for providers that hand out a modest number of long-lived reservations. Lookups by
// handle go through a swiss table, but choosing a region for a new reservation is linear in the
// number of regions.
type FreeListBlockMetadata struct {
	BlockMetadataBase

	allocCount      int
	freeRegionCount int
	sumFreeSize     int

	nextRegionHandle BlockAllocationHandle
	handleKey        *swiss.Map[BlockAllocationHandle, *freeListRegion]
	head             *freeListRegion
}

var _ BlockMetadata = &FreeListBlockMetadata{}

func NewFreeListBlockMetadata() *FreeListBlockMetadata {
	return &FreeListBlockMetadata{}
}

func (m *FreeListBlockMetadata) allocateRegion() *freeListRegion {
	r := regionAllocator.Get().(*freeListRegion)
	r.offset = 0
	r.size = 0
	r.free = false
	r.prevPhysical = nil
	r.nextPhysical = nil
	r.userData = nil
	m.nextRegionHandle++
	r.regionHandle = m.nextRegionHandle
	m.handleKey.Put(r.regionHandle, r)
	return r
}

func (m *FreeListBlockMetadata) freeRegion(r *freeListRegion) {
	m.handleKey.Delete(r.regionHandle)
	r.userData = nil
	r.prevPhysical = nil
	r.nextPhysical = nil
	regionAllocator.Put(r)
}

func (m *FreeListBlockMetadata) getRegion(handle BlockAllocationHandle) (*freeListRegion, error) {
	region, ok := m.handleKey.Get(handle)
	if !ok {
		return nil, errors.New("received a handle that was incompatible with this metadata")
	}
	return region, nil
}

func (m *FreeListBlockMetadata) getReservedRegion(handle BlockAllocationHandle) (*freeListRegion, error) {
	region, err := m.getRegion(handle)
	if err != nil {
		return nil, err
	}
	if region.free {
		return nil, errors.Errorf("region at offset %d is free", region.offset)
	}
	return region, nil
}

func (m *FreeListBlockMetadata) Init(size int) {
	m.BlockMetadataBase.Init(size)
	m.handleKey = swiss.NewMap[BlockAllocationHandle, *freeListRegion](42)
	m.allocCount = 0
	m.nextRegionHandle = 0

	m.head = m.allocateRegion()
	m.head.size = size
	m.head.free = true
	m.freeRegionCount = 1
	m.sumFreeSize = size
}

func (m *FreeListBlockMetadata) Validate() error {
	if m.head == nil {
		return errors.New("metadata has not been initialized")
	}

	if m.head.prevPhysical != nil {
		return errors.New("the first region must not have a previous region")
	}

	var allocCount, freeCount, regionCount int
	calculatedFreeSize := 0
	nextOffset := 0

	for region := m.head; region != nil; region = region.nextPhysical {
		regionCount++

		if region.offset != nextOffset {
			return errors.Errorf("region at offset %d does not start at the previous region's end offset %d", region.offset, nextOffset)
		}

		if region.size < 1 && !(region.free && region == m.head && region.nextPhysical == nil) {
			return errors.Errorf("region at offset %d has invalid size %d", region.offset, region.size)
		}

		if region.nextPhysical != nil && region.nextPhysical.prevPhysical != region {
			return errors.Errorf("region at offset %d has a next region, but the reverse reference is broken", region.offset)
		}

		indexed, ok := m.handleKey.Get(region.regionHandle)
		if !ok || indexed != region {
			return errors.Errorf("region at offset %d is missing from the handle index", region.offset)
		}

		if region.free {
			freeCount++
			calculatedFreeSize += region.size

			if region.userData != nil {
				return errors.Errorf("region at offset %d is free but still carries user data", region.offset)
			}

			if region.nextPhysical != nil && region.nextPhysical.free {
				return errors.Errorf("free region at offset %d was not merged with its free neighbor", region.offset)
			}
		} else {
			allocCount++
		}

		nextOffset = region.offset + region.size
	}

	if nextOffset != m.size {
		return errors.Errorf("the full size of the metadata is %d, but the regions only added up to %d", m.size, nextOffset)
	}

	if regionCount != m.handleKey.Count() {
		return errors.Errorf("the handle index holds %d regions, but the region list holds %d", m.handleKey.Count(), regionCount)
	}

	if calculatedFreeSize != m.sumFreeSize {
		return errors.Errorf("the free size of the metadata is %d, but the free regions only added up to %d", m.sumFreeSize, calculatedFreeSize)
	}

	if allocCount != m.allocCount {
		return errors.Errorf("the allocation count of the metadata is %d, but the reserved regions only added up to %d", m.allocCount, allocCount)
	}

	if freeCount != m.freeRegionCount {
		return errors.Errorf("the free region count of the metadata is %d, but there were %d free regions", m.freeRegionCount, freeCount)
	}

	return nil
}

func (m *FreeListBlockMetadata) AllocationCount() int {
	return m.allocCount
}

func (m *FreeListBlockMetadata) FreeRegionsCount() int {
	return m.freeRegionCount
}

func (m *FreeListBlockMetadata) SumFreeSize() int {
	return m.sumFreeSize
}

func (m *FreeListBlockMetadata) IsEmpty() bool {
	return m.allocCount == 0
}

func (m *FreeListBlockMetadata) VisitAllRegions(handleBlock func(handle BlockAllocationHandle, offset int, size int, userData any, free bool) error) error {
	for region := m.head; region != nil; region = region.nextPhysical {
		if region.size == 0 {
			continue
		}

		err := handleBlock(region.regionHandle, region.offset, region.size, region.userData, region.free)
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *FreeListBlockMetadata) AllocationOffset(allocHandle BlockAllocationHandle) (int, error) {
	region, err := m.getRegion(allocHandle)
	if err != nil {
		return 0, err
	}

	return region.offset, nil
}

func (m *FreeListBlockMetadata) AllocationUserData(allocHandle BlockAllocationHandle) (any, error) {
	region, err := m.getReservedRegion(allocHandle)
	if err != nil {
		return nil, err
	}

	return region.userData, nil
}

func (m *FreeListBlockMetadata) SetAllocationUserData(allocHandle BlockAllocationHandle, userData any) error {
	region, err := m.getReservedRegion(allocHandle)
	if err != nil {
		return err
	}

	region.userData = userData
	return nil
}

func (m *FreeListBlockMetadata) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.BlockCount++
	stats.BlockBytes += m.size

	for region := m.head; region != nil; region = region.nextPhysical {
		if region.size == 0 {
			continue
		}

		if region.free {
			stats.AddUnusedRange(region.size)
		} else {
			stats.AddReservation(region.size - memutils.DebugMargin)
		}
	}
}

func (m *FreeListBlockMetadata) AddStatistics(stats *memutils.Statistics) {
	stats.BlockCount++
	stats.ReservationCount += m.allocCount
	stats.BlockBytes += m.size
	stats.ReservationBytes += m.size - m.sumFreeSize - m.allocCount*memutils.DebugMargin
}

func (m *FreeListBlockMetadata) Clear() {
	for region := m.head; region != nil; {
		next := region.nextPhysical
		m.freeRegion(region)
		region = next
	}

	m.Init(m.size)
}

func (m *FreeListBlockMetadata) BlockJsonData(json *jwriter.ObjectState) {
	m.WriteBlockJsonData(json, m.sumFreeSize, m.allocCount, m.freeRegionCount)
}

// fits returns the aligned offset a reservation would start at within region, and whether it fits there
func (m *FreeListBlockMetadata) fits(region *freeListRegion, allocSize int, allocAlignment uint) (int, bool) {
	if !region.free {
		panic(fmt.Sprintf("region at offset %d is already reserved", region.offset))
	}

	alignedOffset := memutils.AlignUp(region.offset, allocAlignment)
	return alignedOffset, region.size >= allocSize+alignedOffset-region.offset
}

func (m *FreeListBlockMetadata) CreateAllocationRequest(
	allocSize int, allocAlignment uint,
	strategy AllocationStrategy,
) (bool, AllocationRequest, error) {
	var allocRequest AllocationRequest

	if allocSize < 1 {
		return false, allocRequest, errors.Errorf("Invalid allocSize: %d", allocSize)
	}

	err := memutils.CheckPow2(allocAlignment, "allocAlignment")
	if err != nil {
		return false, allocRequest, err
	}

	memutils.DebugValidate(m)

	allocSize += memutils.DebugMargin

	// Is the block big enough?
	if allocSize > m.sumFreeSize {
		return false, allocRequest, nil
	}

	var best *freeListRegion
	bestOffset := 0

	for region := m.head; region != nil; region = region.nextPhysical {
		if !region.free {
			continue
		}

		offset, ok := m.fits(region, allocSize, allocAlignment)
		if !ok {
			continue
		}

		// Regions are visited in order of offset, so the first fit is also the lowest offset
		if strategy&(AllocationStrategyMinTime|AllocationStrategyMinOffset) != 0 {
			best = region
			bestOffset = offset
			break
		}

		if best == nil || region.size < best.size {
			best = region
			bestOffset = offset

			if region.size == allocSize && offset == region.offset {
				break
			}
		}
	}

	if best == nil {
		return false, allocRequest, nil
	}

	allocRequest.Type = AllocationRequestFreeList
	allocRequest.BlockAllocationHandle = best.regionHandle
	allocRequest.Offset = bestOffset
	allocRequest.Size = allocSize - memutils.DebugMargin

	return true, allocRequest, nil
}

func (m *FreeListBlockMetadata) Alloc(req AllocationRequest, userData any) (BlockAllocationHandle, error) {
	if req.Type != AllocationRequestFreeList {
		return NoAllocation, errors.New("allocation request was received by an incompatible metadata")
	}

	current, err := m.getRegion(req.BlockAllocationHandle)
	if err != nil {
		return NoAllocation, err
	}

	if !current.free {
		return NoAllocation, errors.Errorf("allocation request targets the region at offset %d, which is already reserved", current.offset)
	}

	if current.offset > req.Offset {
		return NoAllocation, errors.New("allocation request had an offset before the start of its region")
	}

	size := req.Size + memutils.DebugMargin
	missingAlignment := req.Offset - current.offset

	if current.size < size+missingAlignment {
		return NoAllocation, errors.New("allocation request had a region too small for the request")
	}

	// Split the alignment padding off into its own free region
	if missingAlignment != 0 {
		padding := m.allocateRegion()
		padding.offset = current.offset
		padding.size = missingAlignment
		padding.free = true
		padding.prevPhysical = current.prevPhysical
		padding.nextPhysical = current
		if current.prevPhysical != nil {
			current.prevPhysical.nextPhysical = padding
		} else {
			m.head = padding
		}
		current.prevPhysical = padding

		current.offset += missingAlignment
		current.size -= missingAlignment
		m.freeRegionCount++
	}

	// Split the remainder off into its own free region
	if current.size > size {
		remainder := m.allocateRegion()
		remainder.offset = current.offset + size
		remainder.size = current.size - size
		remainder.free = true
		remainder.prevPhysical = current
		remainder.nextPhysical = current.nextPhysical
		if current.nextPhysical != nil {
			current.nextPhysical.prevPhysical = remainder
		}
		current.nextPhysical = remainder
		current.size = size
		m.freeRegionCount++
	}

	m.handleKey.Delete(current.regionHandle)
	m.nextRegionHandle++
	current.regionHandle = m.nextRegionHandle
	m.handleKey.Put(current.regionHandle, current)

	current.free = false
	current.userData = userData
	m.freeRegionCount--
	m.sumFreeSize -= size
	m.allocCount++

	return current.regionHandle, nil
}

func (m *FreeListBlockMetadata) mergeInto(dst, src *freeListRegion) {
	if dst.nextPhysical != src {
		panic(fmt.Sprintf("cannot merge region at offset %d into region at offset %d: they are not neighbors", src.offset, dst.offset))
	}

	dst.size += src.size
	dst.nextPhysical = src.nextPhysical
	if src.nextPhysical != nil {
		src.nextPhysical.prevPhysical = dst
	}

	m.freeRegion(src)
}

func (m *FreeListBlockMetadata) Free(allocHandle BlockAllocationHandle) error {
	region, err := m.getRegion(allocHandle)
	if err != nil {
		return err
	}
	if region.free {
		return errors.New("region is already free")
	}

	region.free = true
	region.userData = nil
	m.allocCount--
	m.sumFreeSize += region.size
	m.freeRegionCount++

	next := region.nextPhysical
	if next != nil && next.free {
		m.mergeInto(region, next)
		m.freeRegionCount--
	}

	prev := region.prevPhysical
	if prev != nil && prev.free {
		m.mergeInto(prev, region)
		m.freeRegionCount--
	}

	return nil
}
