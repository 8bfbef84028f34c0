package memutils

import "math"

// Statistics is a summary of the reservations a memory provider currently holds
type Statistics struct {
	// BlockCount is the number of backing ranges the provider manages. Unbounded providers report 0.
	BlockCount int
	// ReservationCount is the number of live reservations
	ReservationCount int
	// BlockBytes is the total capacity of the backing ranges
	BlockBytes int
	// ReservationBytes is the number of bytes covered by live reservations
	ReservationBytes int
}

func (s *Statistics) Clear() {
	s.BlockCount = 0
	s.ReservationCount = 0
	s.BlockBytes = 0
	s.ReservationBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BlockCount += other.BlockCount
	s.ReservationCount += other.ReservationCount
	s.BlockBytes += other.BlockBytes
	s.ReservationBytes += other.ReservationBytes
}

// AddReservation counts a single live reservation of the provided size
func (s *Statistics) AddReservation(size int) {
	s.ReservationCount++
	s.ReservationBytes += size
}

// DetailedStatistics extends Statistics with information about the shape of free and reserved ranges
type DetailedStatistics struct {
	Statistics
	UnusedRangeCount   int
	ReservationSizeMin int
	ReservationSizeMax int
	UnusedRangeSizeMin int
	UnusedRangeSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.UnusedRangeCount = 0
	s.ReservationSizeMin = math.MaxInt
	s.ReservationSizeMax = 0
	s.UnusedRangeSizeMin = math.MaxInt
	s.UnusedRangeSizeMax = 0
}

func (s *DetailedStatistics) AddUnusedRange(size int) {
	s.UnusedRangeCount++

	if size < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = size
	}

	if size > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = size
	}
}

func (s *DetailedStatistics) AddReservation(size int) {
	s.Statistics.AddReservation(size)

	if size < s.ReservationSizeMin {
		s.ReservationSizeMin = size
	}

	if size > s.ReservationSizeMax {
		s.ReservationSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.UnusedRangeCount += other.UnusedRangeCount

	if other.UnusedRangeSizeMin < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = other.UnusedRangeSizeMin
	}

	if other.UnusedRangeSizeMax > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = other.UnusedRangeSizeMax
	}

	if other.ReservationSizeMin < s.ReservationSizeMin {
		s.ReservationSizeMin = other.ReservationSizeMin
	}

	if other.ReservationSizeMax > s.ReservationSizeMax {
		s.ReservationSizeMax = other.ReservationSizeMax
	}
}
