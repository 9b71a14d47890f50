package fatimg

import (
	"fmt"

	"github.com/aligator/fatimg/checkpoint"
	"github.com/aligator/fatimg/sector"
	"github.com/golang/glog"
)

// Geometry contains the layout of a volume, derived once from its BPB.
// All sector numbers are absolute indices into the image.
type Geometry struct {
	PartitionStart     uint32
	BytesPerSector     uint32
	SectorsPerCluster  uint32
	NumFATs            uint32
	SectorsPerFAT      uint32
	RootEntryCount     uint32
	TotalSectors       uint32
	FirstFATSector     uint32
	RootDirSectors     uint32
	FirstRootDirSector uint32
	FirstDataSector    uint32
	ClusterCount       uint32

	// FATEntries is the number of usable FAT entries: the two reserved ones
	// plus one per data cluster, limited by the size of one FAT.
	FATEntries uint32
}

func newGeometry(b *BPB, partitionStart uint32) Geometry {
	g := Geometry{
		PartitionStart:    partitionStart,
		BytesPerSector:    uint32(b.BytesPerSector),
		SectorsPerCluster: uint32(b.SectorsPerCluster),
		NumFATs:           uint32(b.NumFATs),
		SectorsPerFAT:     uint32(b.FATSize16),
		RootEntryCount:    uint32(b.RootEntryCount),
		TotalSectors:      b.TotalSectors(),
	}

	reserved := uint32(b.ReservedSectorCount)
	fatSectors := g.NumFATs * g.SectorsPerFAT

	g.RootDirSectors = (g.RootEntryCount*entrySize + g.BytesPerSector - 1) / g.BytesPerSector
	g.FirstFATSector = reserved + partitionStart
	g.FirstDataSector = reserved + fatSectors + g.RootDirSectors + partitionStart
	g.FirstRootDirSector = g.FirstDataSector - g.RootDirSectors

	if overhead := reserved + fatSectors + g.RootDirSectors; g.TotalSectors > overhead {
		g.ClusterCount = (g.TotalSectors - overhead) / g.SectorsPerCluster
	}

	g.FATEntries = g.ClusterCount + uint32(firstDataCluster)
	if capacity := g.SectorsPerFAT * g.BytesPerSector / 2; g.FATEntries > capacity {
		g.FATEntries = capacity
	}
	// Values from 0xFFF0 on are markers and cannot name a cluster.
	if g.FATEntries > 0xFFF0 {
		g.FATEntries = 0xFFF0
	}
	return g
}

func (g Geometry) String() string {
	return fmt.Sprintf("Geometry(firstFatSector: %d, rootDirSectors: %d, firstRootDirSector: %d, firstDataSector: %d, clusterCount: %d, sectorsPerCluster: %d)",
		g.FirstFATSector, g.RootDirSectors, g.FirstRootDirSector, g.FirstDataSector, g.ClusterCount, g.SectorsPerCluster)
}

// Volume is a mounted FAT12/16 volume. It holds only an immutable copy of the
// partition entry and BPB; all data is read from and written to the store.
type Volume struct {
	store     *sector.Store
	partition Partition
	bpb       BPB
	geo       Geometry
}

// Mount reads the BPB of partition p and derives the volume geometry.
// It fails with ErrNotFAT if the partition holds no usable FAT12/16 volume.
func Mount(store *sector.Store, p Partition) (*Volume, error) {
	raw, err := store.Read(p.StartLBA)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrNotFAT)
	}

	bpb, err := ParseBPB(raw)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrNotFAT)
	}
	if err := bpb.validate(); err != nil {
		return nil, err
	}

	geo := newGeometry(bpb, p.StartLBA)
	if uint64(p.StartLBA)+uint64(geo.TotalSectors) > uint64(store.Len()) {
		return nil, checkpoint.Wrap(fmt.Errorf("volume needs %d sectors from %d, image has %d", geo.TotalSectors, p.StartLBA, store.Len()), ErrNotFAT)
	}
	if geo.ClusterCount == 0 {
		return nil, checkpoint.Wrap(fmt.Errorf("no data clusters"), ErrNotFAT)
	}
	if p.SectorCount != 0 && geo.TotalSectors > p.SectorCount {
		glog.Warningf("volume at sector %d claims %d sectors, partition has %d", p.StartLBA, geo.TotalSectors, p.SectorCount)
	}

	glog.V(1).Infof("mounted FAT volume %q at sector %d: %v", bpb.Label(), p.StartLBA, geo)

	return &Volume{
		store:     store,
		partition: p,
		bpb:       *bpb,
		geo:       geo,
	}, nil
}

// Geometry returns the cached layout of the volume.
func (v *Volume) Geometry() Geometry {
	return v.geo
}

// BPB returns a copy of the parsed BIOS parameter block.
func (v *Volume) BPB() BPB {
	return v.bpb
}

// Partition returns the partition table entry the volume was mounted from.
func (v *Volume) Partition() Partition {
	return v.partition
}

func (v *Volume) fatPosition(c Cluster) (uint32, int, error) {
	if uint32(c) >= v.geo.FATEntries {
		return 0, 0, checkpoint.Wrap(fmt.Errorf("cluster %d, FAT has %d entries", c, v.geo.FATEntries), ErrClusterRange)
	}
	off := uint32(c) * 2
	return v.geo.FirstFATSector + off/v.geo.BytesPerSector, int(off % v.geo.BytesPerSector), nil
}

// ReadFATEntry returns the FAT entry of cluster c from the first FAT.
func (v *Volume) ReadFATEntry(c Cluster) (Cluster, error) {
	idx, off, err := v.fatPosition(c)
	if err != nil {
		return 0, err
	}
	value, err := v.store.Uint16(idx, off)
	if err != nil {
		return 0, checkpoint.From(err)
	}
	return Cluster(value), nil
}

// WriteFATEntry sets the FAT entry of cluster c in every FAT copy.
func (v *Volume) WriteFATEntry(c Cluster, value Cluster) error {
	idx, off, err := v.fatPosition(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < v.geo.NumFATs; i++ {
		if err := v.store.PutUint16(idx+i*v.geo.SectorsPerFAT, off, uint16(value)); err != nil {
			return checkpoint.From(err)
		}
	}
	return nil
}

// FirstSectorOfCluster returns the absolute index of the first sector of
// data cluster c. Clusters 0 and 1 have no data.
func (v *Volume) FirstSectorOfCluster(c Cluster) (uint32, error) {
	if c < firstDataCluster || uint32(c) >= v.geo.FATEntries {
		return 0, checkpoint.Wrap(fmt.Errorf("cluster %d has no data sectors", c), ErrClusterRange)
	}
	return uint32(c-firstDataCluster)*v.geo.SectorsPerCluster + v.geo.FirstDataSector, nil
}

// zeroCluster clears every sector of cluster c.
func (v *Volume) zeroCluster(c Cluster) error {
	first, err := v.FirstSectorOfCluster(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < v.geo.SectorsPerCluster; i++ {
		if err := v.store.Zero(first + i); err != nil {
			return checkpoint.From(err)
		}
	}
	return nil
}

// Chain returns every cluster of the chain starting at first.
// A chain longer than the volume, one running into a free, bad or reserved
// entry, or one starting outside of the data region is reported as ErrInvariant.
func (v *Volume) Chain(first Cluster) ([]Cluster, error) {
	if !first.IsNext() {
		return nil, checkpoint.Wrap(fmt.Errorf("chain starts at cluster %#04x", uint16(first)), ErrInvariant)
	}

	var chain []Cluster
	cur := first
	for i := uint32(0); i <= v.geo.ClusterCount; i++ {
		chain = append(chain, cur)

		next, err := v.ReadFATEntry(cur)
		if err != nil {
			return nil, err
		}
		if next.IsEOF() {
			return chain, nil
		}
		if !next.IsNext() {
			return nil, checkpoint.Wrap(fmt.Errorf("cluster %d links to %#04x", cur, uint16(next)), ErrInvariant)
		}
		cur = next
	}

	return nil, checkpoint.Wrap(fmt.Errorf("chain from cluster %d is longer than the volume", first), ErrInvariant)
}
