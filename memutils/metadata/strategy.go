package metadata

// AllocationStrategy exposes several options for choosing the location of a new reservation.
// If none is chosen, the block falls back to AllocationStrategyMinMemory.
type AllocationStrategy uint32

const (
	// AllocationStrategyMinMemory selects the smallest free region that can hold the reservation,
	// keeping large regions intact at the cost of scanning every free region.
	AllocationStrategyMinMemory AllocationStrategy = 1 << iota
	// AllocationStrategyMinTime selects the first free region found that can hold the reservation.
	AllocationStrategyMinTime
	// AllocationStrategyMinOffset selects the free region with the lowest offset that can hold the
	// reservation. This produces the most tightly packed block.
	AllocationStrategyMinOffset
)

var allocationStrategyMapping = map[AllocationStrategy]string{
	AllocationStrategyMinMemory: "AllocationStrategyMinMemory",
	AllocationStrategyMinTime:   "AllocationStrategyMinTime",
	AllocationStrategyMinOffset: "AllocationStrategyMinOffset",
}

func (s AllocationStrategy) String() string {
	if s == 0 {
		return "AllocationStrategyDefault"
	}

	str, ok := allocationStrategyMapping[s]
	if !ok {
		return "unknown AllocationStrategy"
	}

	return str
}
