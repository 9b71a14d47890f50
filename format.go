package fatimg

import (
	"errors"
	"fmt"

	"github.com/aligator/fatimg/checkpoint"
	"github.com/aligator/fatimg/sector"
	"github.com/golang/glog"
)

var ErrFormat = errors.New("fatimg: could not format the image")

const (
	mediaFixedDisk = 0xF8

	// maxClusters is the largest cluster count whose clusters all have a
	// FAT16 entry below the reserved values starting at 0xFFF0.
	maxClusters = 0xFFF0 - uint32(firstDataCluster)

	maxSectorsPerCluster = 128
)

// FormatOptions describes the volume created by Format. Zero fields get the
// defaults noted on them.
type FormatOptions struct {
	// PartitionStart is the first sector of the only partition. Default 1.
	PartitionStart uint32
	// SectorsPerCluster must be a power of two. Default is the smallest one
	// which keeps the cluster count within the FAT16 limit.
	SectorsPerCluster uint8
	// ReservedSectors includes the boot sector. Default 1.
	ReservedSectors uint16
	// NumFATs is the number of FAT copies. Default 2.
	NumFATs uint8
	// RootEntryCount is the size of the root directory in entries. Default 224.
	RootEntryCount uint16
	// Label is the volume label, at most 11 characters. Default "NO NAME".
	Label string
	// OEMName is stored in the boot sector, at most 8 characters. Default "FATIMG".
	OEMName  string
	VolumeID uint32
}

func (o FormatOptions) withDefaults() FormatOptions {
	if o.PartitionStart == 0 {
		o.PartitionStart = 1
	}
	if o.ReservedSectors == 0 {
		o.ReservedSectors = 1
	}
	if o.NumFATs == 0 {
		o.NumFATs = 2
	}
	if o.RootEntryCount == 0 {
		o.RootEntryCount = 224
	}
	if o.Label == "" {
		o.Label = "NO NAME"
	}
	if o.OEMName == "" {
		o.OEMName = "FATIMG"
	}
	return o
}

func padded(dst []byte, s string) {
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, s)
}

// clusterCount returns the number of data clusters left after the
// overhead and spf sectors per FAT.
func clusterCount(total, overhead, sectorsPerCluster, numFATs, spf uint32) uint32 {
	used := overhead + numFATs*spf
	if used >= total {
		return 0
	}
	return (total - used) / sectorsPerCluster
}

// sectorsPerFAT returns the smallest FAT size holding an entry for every
// cluster left over after the FATs themselves.
func sectorsPerFAT(total, overhead, sectorsPerCluster, numFATs uint32) uint32 {
	spf := uint32(1)
	for {
		used := overhead + numFATs*spf
		if used >= total {
			return spf
		}
		clusters := (total - used) / sectorsPerCluster
		if (clusters+uint32(firstDataCluster))*2 <= spf*sector.Size {
			return spf
		}
		spf++
	}
}

// Format writes an MBR with a single FAT16 partition filling the rest of the
// store, and an empty volume into that partition. Existing content of the
// boot sector, the FATs and the root directory is overwritten. Data clusters
// are left as they are, they are cleared on allocation.
func Format(store *sector.Store, opts FormatOptions) error {
	opts = opts.withDefaults()

	switch {
	case opts.SectorsPerCluster&(opts.SectorsPerCluster-1) != 0:
		return checkpoint.Wrap(fmt.Errorf("sectors per cluster %d is not a power of two", opts.SectorsPerCluster), ErrFormat)
	case len(opts.Label) > 11:
		return checkpoint.Wrap(fmt.Errorf("label %q is longer than 11 characters", opts.Label), ErrFormat)
	case len(opts.OEMName) > 8:
		return checkpoint.Wrap(fmt.Errorf("OEM name %q is longer than 8 characters", opts.OEMName), ErrFormat)
	case uint64(opts.PartitionStart) >= uint64(store.Len()):
		return checkpoint.Wrap(fmt.Errorf("partition start %d, image has %d sectors", opts.PartitionStart, store.Len()), ErrFormat)
	}

	total := uint32(store.Len()) - opts.PartitionStart
	rootDirSectors := (uint32(opts.RootEntryCount)*entrySize + sector.Size - 1) / sector.Size
	overhead := uint32(opts.ReservedSectors) + rootDirSectors

	var spf uint32
	if opts.SectorsPerCluster == 0 {
		for spc := uint32(1); spc <= maxSectorsPerCluster; spc *= 2 {
			opts.SectorsPerCluster = uint8(spc)
			spf = sectorsPerFAT(total, overhead, spc, uint32(opts.NumFATs))
			if clusterCount(total, overhead, spc, uint32(opts.NumFATs), spf) <= maxClusters {
				break
			}
		}
	} else {
		spf = sectorsPerFAT(total, overhead, uint32(opts.SectorsPerCluster), uint32(opts.NumFATs))
	}

	if clusters := clusterCount(total, overhead, uint32(opts.SectorsPerCluster), uint32(opts.NumFATs), spf); clusters > maxClusters {
		return checkpoint.Wrap(fmt.Errorf("%d clusters of %d sectors exceed the FAT16 limit of %d", clusters, opts.SectorsPerCluster, maxClusters), ErrFormat)
	}

	if overhead+uint32(opts.NumFATs)*spf+uint32(opts.SectorsPerCluster) > total {
		return checkpoint.Wrap(fmt.Errorf("%d sectors leave no room for data", total), ErrFormat)
	}
	if spf > 0xFFFF {
		return checkpoint.Wrap(fmt.Errorf("%d sectors per FAT", spf), ErrFormat)
	}

	b := BPB{
		JumpBoot:            [3]byte{0xEB, 0x3C, 0x90},
		BytesPerSector:      sector.Size,
		SectorsPerCluster:   opts.SectorsPerCluster,
		ReservedSectorCount: opts.ReservedSectors,
		NumFATs:             opts.NumFATs,
		RootEntryCount:      opts.RootEntryCount,
		Media:               mediaFixedDisk,
		FATSize16:           uint16(spf),
		SectorsPerTrack:     32,
		NumberOfHeads:       64,
		HiddenSectors:       opts.PartitionStart,
		FAT16: FAT16SpecificData{
			DriveNumber:   0x80,
			BootSignature: 0x29,
			VolumeID:      opts.VolumeID,
		},
	}
	if total <= 0xFFFF {
		b.TotalSectors16 = uint16(total)
	} else {
		b.TotalSectors32 = total
	}
	padded(b.OEMName[:], opts.OEMName)
	padded(b.FAT16.VolumeLabel[:], opts.Label)
	padded(b.FAT16.FileSystemType[:], "FAT16")

	partType := PartitionTypeFAT16Small
	if total > 0xFFFF {
		partType = PartitionTypeFAT16
	}
	m := MBR{Signature: bootSignature}
	m.Partitions[0] = Partition{
		StartCHS:    [3]byte{0xFE, 0xFF, 0xFF},
		Type:        partType,
		EndCHS:      [3]byte{0xFE, 0xFF, 0xFF},
		StartLBA:    opts.PartitionStart,
		SectorCount: total,
	}

	mbrRaw, err := m.Bytes()
	if err != nil {
		return checkpoint.Wrap(err, ErrFormat)
	}
	if err := store.Write(0, 0, mbrRaw); err != nil {
		return checkpoint.Wrap(err, ErrFormat)
	}

	// Boot sector, reserved sectors, FATs and root directory start out zeroed.
	meta := overhead + uint32(opts.NumFATs)*spf
	for i := uint32(0); i < meta; i++ {
		if err := store.Zero(opts.PartitionStart + i); err != nil {
			return checkpoint.Wrap(err, ErrFormat)
		}
	}

	bpbRaw, err := b.Bytes()
	if err != nil {
		return checkpoint.Wrap(err, ErrFormat)
	}
	if err := store.Write(opts.PartitionStart, 0, bpbRaw); err != nil {
		return checkpoint.Wrap(err, ErrFormat)
	}
	if err := store.PutUint16(opts.PartitionStart, signatureOffset, bootSignature); err != nil {
		return checkpoint.Wrap(err, ErrFormat)
	}

	firstFAT := opts.PartitionStart + uint32(opts.ReservedSectors)
	for i := uint32(0); i < uint32(opts.NumFATs); i++ {
		idx := firstFAT + i*spf
		// Entry 0 repeats the media descriptor, entry 1 is end of chain.
		if err := store.PutUint16(idx, 0, 0xFF00|mediaFixedDisk); err != nil {
			return checkpoint.Wrap(err, ErrFormat)
		}
		if err := store.PutUint16(idx, 2, uint16(EndOfChain)); err != nil {
			return checkpoint.Wrap(err, ErrFormat)
		}
	}

	glog.V(1).Infof("formatted %d sectors at %d: %d sectors per FAT, %d root entries", total, opts.PartitionStart, spf, opts.RootEntryCount)
	return nil
}
