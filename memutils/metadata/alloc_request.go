package metadata

// AllocationRequestType is an enum that indicates the type of allocation that is being made.
// It is returned in AllocationRequest from CreateAllocationRequest
type AllocationRequestType uint32

const (
	// AllocationRequestFreeList indicates that the allocation request was sourced from FreeListBlockMetadata
	AllocationRequestFreeList AllocationRequestType = iota
)

var allocationRequestMapping = map[AllocationRequestType]string{
	AllocationRequestFreeList: "FreeList",
}

func (t AllocationRequestType) String() string {
	return allocationRequestMapping[t]
}

// AllocationRequest is a type returned from BlockMetadata.CreateAllocationRequest which indicates where
// the metadata intends to place a new reservation. It is committed to the metadata with BlockMetadata.Alloc
type AllocationRequest struct {
	// BlockAllocationHandle identifies the free region the reservation will be carved from. Committing
	// the request produces a new handle for the reservation itself.
	BlockAllocationHandle BlockAllocationHandle
	// Offset is the aligned offset in bytes the reservation will start at
	Offset int
	// Size is the number of bytes requested by the consumer
	Size int
	// Type identifies the sort of allocation this request represents (and can be used
	// to identify the BlockMetadata implementation used to generate this request).
	Type AllocationRequestType
}
