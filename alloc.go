package fatimg

import (
	"fmt"

	"github.com/aligator/fatimg/checkpoint"
	"github.com/aligator/fatimg/sector"
	"github.com/golang/glog"
)

// Slot is the position of one 32 byte directory entry in the image.
type Slot struct {
	Sector uint32
	Offset int
}

func (s Slot) String() string {
	return fmt.Sprintf("%d+%d", s.Sector, s.Offset)
}

// slotIsFree reports whether the directory entry raw may be reused.
// A slot is free if its first cluster is 0, except for "." and ".." which may
// point to the root as cluster 0, and volume labels and long name parts which
// never own a cluster.
func slotIsFree(raw []byte) bool {
	if byteOrder.Uint16(raw[entryFirstClusterOffset:]) != uint16(FreeCluster) {
		return false
	}
	if raw[0] == '.' {
		return false
	}
	return raw[entryAttrOffset]&AttrVolumeID == 0
}

// ScanForFreeCluster returns the lowest cluster whose FAT entry is free.
// It does not allocate it.
func (v *Volume) ScanForFreeCluster() (Cluster, error) {
	for c := uint32(firstDataCluster); c < v.geo.FATEntries; c++ {
		entry, err := v.ReadFATEntry(Cluster(c))
		if err != nil {
			return 0, err
		}
		if entry.IsFree() {
			return Cluster(c), nil
		}
	}
	return 0, checkpoint.Wrap(fmt.Errorf("all %d clusters in use", v.geo.ClusterCount), ErrVolumeFull)
}

// claimCluster marks the free cluster c as the end of a new chain and zeroes
// its data.
func (v *Volume) claimCluster(c Cluster) error {
	if err := v.WriteFATEntry(c, EndOfChain); err != nil {
		return err
	}
	if err := v.zeroCluster(c); err != nil {
		return err
	}
	glog.V(2).Infof("allocated cluster %d", c)
	return nil
}

// scanSlots returns the first free slot among count entries starting at the
// beginning of sector first.
func (v *Volume) scanSlots(first uint32, count uint32) (Slot, bool, error) {
	perSector := v.geo.BytesPerSector / entrySize
	var buf []byte
	for i := uint32(0); i < count; i++ {
		idx := first + i/perSector
		off := int(i%perSector) * entrySize
		if off == 0 {
			var err error
			if buf, err = v.store.Read(idx); err != nil {
				return Slot{}, false, checkpoint.From(err)
			}
		}
		if slotIsFree(buf[off : off+entrySize]) {
			return Slot{Sector: idx, Offset: off}, true, nil
		}
	}
	return Slot{}, false, nil
}

// ScanForFreeSlotInRoot returns the first free entry of the root directory.
// The root region has a fixed size, if it is exhausted ErrRootFull is returned.
func (v *Volume) ScanForFreeSlotInRoot() (Slot, error) {
	slot, ok, err := v.scanSlots(v.geo.FirstRootDirSector, v.geo.RootEntryCount)
	if err != nil {
		return Slot{}, err
	}
	if !ok {
		return Slot{}, checkpoint.Wrap(fmt.Errorf("all %d entries in use", v.geo.RootEntryCount), ErrRootFull)
	}
	return slot, nil
}

// ScanForFreeSlotInCluster returns the first free entry of the directory
// whose chain contains c, starting the search at c. If every cluster up to
// the end of the chain is full, a new cluster is allocated, appended to the
// chain and its first slot is returned.
func (v *Volume) ScanForFreeSlotInCluster(c Cluster) (Slot, error) {
	perCluster := v.geo.SectorsPerCluster * v.geo.BytesPerSector / entrySize

	cur := c
	for i := uint32(0); i <= v.geo.ClusterCount; i++ {
		first, err := v.FirstSectorOfCluster(cur)
		if err != nil {
			return Slot{}, err
		}
		slot, ok, err := v.scanSlots(first, perCluster)
		if err != nil {
			return Slot{}, err
		}
		if ok {
			return slot, nil
		}

		next, err := v.ReadFATEntry(cur)
		if err != nil {
			return Slot{}, err
		}
		switch {
		case next.IsEOF():
			if cur, err = v.extendChain(cur); err != nil {
				return Slot{}, err
			}
		case next.IsNext():
			cur = next
		default:
			return Slot{}, checkpoint.Wrap(fmt.Errorf("directory cluster %d links to %#04x", cur, uint16(next)), ErrInvariant)
		}
	}

	return Slot{}, checkpoint.Wrap(fmt.Errorf("directory chain from cluster %d is longer than the volume", c), ErrInvariant)
}

// extendChain appends a zeroed cluster to the chain ending at last.
func (v *Volume) extendChain(last Cluster) (Cluster, error) {
	next, err := v.ScanForFreeCluster()
	if err != nil {
		return 0, err
	}
	if err := v.WriteFATEntry(last, next); err != nil {
		return 0, err
	}
	if err := v.claimCluster(next); err != nil {
		return 0, err
	}
	glog.V(2).Infof("chain grew from cluster %d to %d", last, next)
	return next, nil
}

// readSlot returns the raw entry stored at s.
func (v *Volume) readSlot(s Slot) ([]byte, error) {
	raw, err := v.store.ReadAt(s.Sector, s.Offset, entrySize)
	return raw, checkpoint.From(err)
}

// writeSlot stores a raw 32 byte entry at s.
func (v *Volume) writeSlot(s Slot, raw []byte) error {
	if len(raw) != entrySize {
		return checkpoint.Wrap(fmt.Errorf("entry has %d bytes", len(raw)), ErrInvariant)
	}
	if s.Offset%entrySize != 0 || s.Offset+entrySize > sector.Size {
		return checkpoint.Wrap(fmt.Errorf("misaligned slot %v", s), ErrInvariant)
	}
	return checkpoint.From(v.store.Write(s.Sector, s.Offset, raw))
}
