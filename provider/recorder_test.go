package provider_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/ownership/memutils"
	"github.com/vkngwrapper/ownership/provider"
	mock_provider "github.com/vkngwrapper/ownership/provider/mocks"
	"go.uber.org/mock/gomock"
)

func TestRecorderCounts(t *testing.T) {
	heap := provider.NewHeap(nil, provider.HeapOptions{SizeLimit: 32})
	recorder := provider.NewRecorder(heap)

	first, err := recorder.Allocate(16, 8)
	require.NoError(t, err)
	second, err := recorder.Allocate(8, 8)
	require.NoError(t, err)

	_, err = recorder.Allocate(16, 8)
	require.ErrorIs(t, err, memutils.ErrOutOfMemory)

	require.Equal(t, 3, recorder.AllocateCalls())
	require.Equal(t, 1, recorder.FailedAllocateCalls())
	require.Equal(t, 2, recorder.Live())
	require.Equal(t, 24, recorder.LiveBytes())

	recorder.Free(first)
	recorder.Free(second)

	require.Equal(t, 2, recorder.FreeCalls())
	require.Equal(t, 0, recorder.Live())
	require.Equal(t, 0, recorder.LiveBytes())
	require.True(t, heap.IsEmpty())
}

func TestRecorderForwards(t *testing.T) {
	ctrl := gomock.NewController(t)

	reservation := provider.Reservation{Offset: 64, Size: 12, Alignment: 4, Handle: 3}
	inner := mock_provider.NewMockProvider(ctrl)
	inner.EXPECT().Allocate(12, uint(4)).Return(reservation, nil)
	inner.EXPECT().Free(reservation)

	recorder := provider.NewRecorder(inner)
	granted, err := recorder.Allocate(12, 4)
	require.NoError(t, err)
	require.Equal(t, reservation, granted)

	recorder.Free(granted)
	require.Equal(t, 0, recorder.Live())
}

func TestRecorderIgnoresMisuse(t *testing.T) {
	recorder := provider.NewRecorder(provider.NewHeap(nil, provider.HeapOptions{}))

	kept, err := recorder.Allocate(16, 8)
	require.NoError(t, err)
	freed, err := recorder.Allocate(8, 8)
	require.NoError(t, err)

	recorder.Free(freed)
	recorder.Free(freed)
	recorder.Free(provider.Reservation{Offset: 4096, Size: 64, Alignment: 8, Handle: 999})

	require.Equal(t, 3, recorder.FreeCalls())
	require.Equal(t, 1, recorder.Live())
	require.Equal(t, 16, recorder.LiveBytes())

	recorder.Free(kept)
	require.Equal(t, 0, recorder.Live())
	require.Equal(t, 0, recorder.LiveBytes())
}

func TestRecorderDefault(t *testing.T) {
	recorder := provider.NewRecorder(nil)

	reservation, err := recorder.Allocate(8, 8)
	require.NoError(t, err)
	recorder.Free(reservation)

	require.Equal(t, 1, recorder.AllocateCalls())
	require.Equal(t, 1, recorder.FreeCalls())
}
