package fatimg

// Cluster is a cluster number or the value of a FAT16 table entry. Both share
// the same domain: an entry either is free, links to the next cluster of a
// chain or carries one of the special markers.
type Cluster uint16

const (
	// FreeCluster marks an unused cluster in the FAT.
	FreeCluster Cluster = 0x0000
	// RootCluster is used to refer to the fixed root directory, which has no
	// cluster of its own. ".." entries of top-level directories carry it too.
	RootCluster Cluster = 0x0000
	// EndOfChain is written to the last cluster of every chain.
	EndOfChain Cluster = 0xFFFF
	// BadCluster marks a defective cluster.
	BadCluster Cluster = 0xFFF7

	// firstDataCluster is the first cluster backed by the data region.
	// Clusters 0 and 1 are reserved and never allocated.
	firstDataCluster Cluster = 2

	eocMin Cluster = 0xFFF8
)

// IsFree reports whether the entry marks a free cluster.
func (c Cluster) IsFree() bool {
	return c == FreeCluster
}

// IsReservedTemp reports the value 1 which is sometimes used as a
// temporary allocation marker.
func (c Cluster) IsReservedTemp() bool {
	return c == 0x0001
}

// IsNext reports whether the entry links to a following cluster.
func (c Cluster) IsNext() bool {
	return c >= firstDataCluster && c < 0xFFF0
}

// IsReserved reports the range 0xFFF0 to 0xFFF6 which must not be used.
func (c Cluster) IsReserved() bool {
	return c >= 0xFFF0 && c < BadCluster
}

// IsBad reports whether the entry marks a bad cluster.
func (c Cluster) IsBad() bool {
	return c == BadCluster
}

// IsEOF reports whether the entry ends a chain. Every value from 0xFFF8 to
// 0xFFFF is accepted, EndOfChain is the one which gets written.
func (c Cluster) IsEOF() bool {
	return c >= eocMin
}
