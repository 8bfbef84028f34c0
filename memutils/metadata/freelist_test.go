package metadata_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/ownership/memutils"
	"github.com/vkngwrapper/ownership/memutils/metadata"
)

func allocate(t *testing.T, md metadata.BlockMetadata, size int, alignment uint, strategy metadata.AllocationStrategy) metadata.BlockAllocationHandle {
	success, request, err := md.CreateAllocationRequest(size, alignment, strategy)
	require.NoError(t, err)
	require.True(t, success)

	handle, err := md.Alloc(request, nil)
	require.NoError(t, err)
	require.NotEqual(t, request.BlockAllocationHandle, handle)
	require.NoError(t, md.Validate())

	return handle
}

func TestFreeListAlloc(t *testing.T) {
	freeList := metadata.NewFreeListBlockMetadata()
	freeList.Init(1000)

	var stats memutils.DetailedStatistics
	stats.Clear()
	freeList.AddDetailedStatistics(&stats)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			BlockCount:       1,
			BlockBytes:       1000,
			ReservationCount: 0,
			ReservationBytes: 0,
		},
		UnusedRangeCount:   1,
		ReservationSizeMin: math.MaxInt,
		ReservationSizeMax: 0,
		UnusedRangeSizeMin: 1000,
		UnusedRangeSizeMax: 1000,
	}, stats)

	margin := memutils.DebugMargin
	alloc1 := allocate(t, freeList, 100, 1, metadata.AllocationStrategyMinTime)
	alloc2 := allocate(t, freeList, 50, 1, metadata.AllocationStrategyMinMemory)
	alloc3 := allocate(t, freeList, 25, 1, 0)

	stats.Clear()
	freeList.AddDetailedStatistics(&stats)
	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			BlockCount:       1,
			BlockBytes:       1000,
			ReservationCount: 3,
			ReservationBytes: 175,
		},
		UnusedRangeCount:   1,
		ReservationSizeMin: 25,
		ReservationSizeMax: 100,
		UnusedRangeSizeMin: 825 - 3*margin,
		UnusedRangeSizeMax: 825 - 3*margin,
	}, stats)

	offset, err := freeList.AllocationOffset(alloc2)
	require.NoError(t, err)
	require.Equal(t, 100+margin, offset)

	err = freeList.Free(alloc1)
	require.NoError(t, err)
	require.NoError(t, freeList.Validate())

	stats.Clear()
	freeList.AddDetailedStatistics(&stats)
	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			BlockCount:       1,
			BlockBytes:       1000,
			ReservationCount: 2,
			ReservationBytes: 75,
		},
		UnusedRangeCount:   2,
		ReservationSizeMin: 25,
		ReservationSizeMax: 50,
		UnusedRangeSizeMin: 100 + margin,
		UnusedRangeSizeMax: 825 - 3*margin,
	}, stats)

	var plain memutils.Statistics
	freeList.AddStatistics(&plain)
	require.Equal(t, 75, plain.ReservationBytes)

	require.NoError(t, freeList.Free(alloc3))
	require.NoError(t, freeList.Validate())
	require.NoError(t, freeList.Free(alloc2))
	require.NoError(t, freeList.Validate())

	require.True(t, freeList.IsEmpty())
	require.Equal(t, 1, freeList.FreeRegionsCount())
	require.Equal(t, 1000, freeList.SumFreeSize())
}

func TestFreeListAlignment(t *testing.T) {
	freeList := metadata.NewFreeListBlockMetadata()
	freeList.Init(256)

	margin := memutils.DebugMargin
	allocate(t, freeList, 3, 1, 0)
	aligned := allocate(t, freeList, 16, 16, 0)

	alignedOffset := memutils.AlignUp(3+margin, 16)
	offset, err := freeList.AllocationOffset(aligned)
	require.NoError(t, err)
	require.Equal(t, alignedOffset, offset)

	// The padding between the two reservations stays available
	require.Equal(t, 2, freeList.FreeRegionsCount())
	require.Equal(t, 256-3-16-2*margin, freeList.SumFreeSize())

	expectedSmall := 3 + margin
	if 8+margin > alignedOffset-expectedSmall {
		expectedSmall = alignedOffset + 16 + margin
	}

	small := allocate(t, freeList, 8, 1, metadata.AllocationStrategyMinOffset)
	offset, err = freeList.AllocationOffset(small)
	require.NoError(t, err)
	require.Equal(t, expectedSmall, offset)
}

func TestFreeListBestFit(t *testing.T) {
	freeList := metadata.NewFreeListBlockMetadata()
	freeList.Init(1000)

	big := allocate(t, freeList, 400, 1, 0)
	allocate(t, freeList, 10, 1, 0)
	small := allocate(t, freeList, 50, 1, 0)
	allocate(t, freeList, 10, 1, 0)

	require.NoError(t, freeList.Free(big))
	require.NoError(t, freeList.Free(small))

	// Free regions: [0, 400), [410, 460), [470, 1000) when no debug margin is reserved
	minMemory := allocate(t, freeList, 40, 1, metadata.AllocationStrategyMinMemory)
	offset, err := freeList.AllocationOffset(minMemory)
	require.NoError(t, err)
	require.Equal(t, 410+2*memutils.DebugMargin, offset)

	minTime := allocate(t, freeList, 40, 1, metadata.AllocationStrategyMinTime)
	offset, err = freeList.AllocationOffset(minTime)
	require.NoError(t, err)
	require.Equal(t, 0, offset)
}

func TestFreeListExhaustion(t *testing.T) {
	freeList := metadata.NewFreeListBlockMetadata()
	freeList.Init(100)

	allocate(t, freeList, 60, 1, 0)

	success, _, err := freeList.CreateAllocationRequest(50, 1, 0)
	require.NoError(t, err)
	require.False(t, success)

	_, _, err = freeList.CreateAllocationRequest(0, 1, 0)
	require.Error(t, err)

	_, _, err = freeList.CreateAllocationRequest(10, 3, 0)
	require.ErrorIs(t, err, memutils.PowerOfTwoError)
}

func TestFreeListDoubleFree(t *testing.T) {
	freeList := metadata.NewFreeListBlockMetadata()
	freeList.Init(100)

	first := allocate(t, freeList, 10, 1, 0)
	allocate(t, freeList, 10, 1, 0)

	require.NoError(t, freeList.Free(first))
	require.Error(t, freeList.Free(first))
	require.Error(t, freeList.Free(metadata.NoAllocation))
	require.NoError(t, freeList.Validate())
}

func TestFreeListUserData(t *testing.T) {
	freeList := metadata.NewFreeListBlockMetadata()
	freeList.Init(100)

	handle := allocate(t, freeList, 10, 1, 0)

	userData, err := freeList.AllocationUserData(handle)
	require.NoError(t, err)
	require.Nil(t, userData)

	require.NoError(t, freeList.SetAllocationUserData(handle, "reservation"))
	userData, err = freeList.AllocationUserData(handle)
	require.NoError(t, err)
	require.Equal(t, "reservation", userData)

	var visited []int
	err = freeList.VisitAllRegions(func(handle metadata.BlockAllocationHandle, offset int, size int, userData any, free bool) error {
		visited = append(visited, offset, size)
		return nil
	})
	require.NoError(t, err)
	margin := memutils.DebugMargin
	require.Equal(t, []int{0, 10 + margin, 10 + margin, 90 - margin}, visited)

	freeList.Clear()
	require.True(t, freeList.IsEmpty())
	require.NoError(t, freeList.Validate())
	_, err = freeList.AllocationUserData(handle)
	require.Error(t, err)
}

func TestFreeListJson(t *testing.T) {
	freeList := metadata.NewFreeListBlockMetadata()
	freeList.Init(100)
	allocate(t, freeList, 10, 1, 0)

	writer := jwriter.NewWriter()
	obj := writer.Object()
	freeList.BlockJsonData(&obj)
	obj.End()

	require.JSONEq(t, fmt.Sprintf(`{"TotalBytes":100,"UnusedBytes":%d,"Allocations":1,"UnusedRanges":1}`, 90-memutils.DebugMargin), string(writer.Bytes()))
}

func TestFreeListStaleHandle(t *testing.T) {
	freeList := metadata.NewFreeListBlockMetadata()
	freeList.Init(100)

	first := allocate(t, freeList, 32, 8, 0)
	require.NoError(t, freeList.Free(first))

	second := allocate(t, freeList, 32, 8, 0)
	require.NotEqual(t, first, second)

	offset, err := freeList.AllocationOffset(second)
	require.NoError(t, err)
	require.Equal(t, 0, offset)

	// The first handle no longer names anything, so it cannot free the reservation that replaced it
	require.Error(t, freeList.Free(first))
	_, err = freeList.AllocationUserData(first)
	require.Error(t, err)
	require.False(t, freeList.IsEmpty())
	require.NoError(t, freeList.Validate())
}
