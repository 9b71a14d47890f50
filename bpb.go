package fatimg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aligator/fatimg/checkpoint"
	"github.com/aligator/fatimg/record"
	"github.com/aligator/fatimg/sector"
)

var ErrParseBPB = errors.New("could not parse the BIOS parameter block")

// ParseBPB decodes the BIOS Parameter Block from the first sector of a partition.
//
// Only FAT12/16 volumes are understood. The fields are decoded as they are,
// use validate before deriving any geometry from them.
func ParseBPB(raw []byte) (*BPB, error) {
	if len(raw) < bpbSize {
		return nil, checkpoint.Wrap(fmt.Errorf("need %d bytes, got %d", bpbSize, len(raw)), ErrParseBPB)
	}

	b := &BPB{}
	if err := unpack(raw[:bpbSize], b); err != nil {
		return nil, checkpoint.Wrap(err, ErrParseBPB)
	}
	return b, nil
}

// Bytes encodes the 62 byte header.
func (b *BPB) Bytes() ([]byte, error) {
	return pack(b)
}

// TotalSectors returns the sector count of the volume. The 16 bit field is
// used if it is set, the 32 bit one otherwise.
func (b *BPB) TotalSectors() uint32 {
	if b.TotalSectors16 != 0 {
		return uint32(b.TotalSectors16)
	}
	return b.TotalSectors32
}

// Label returns the volume label without padding.
func (b *BPB) Label() string {
	return strings.TrimRight(string(b.FAT16.VolumeLabel[:]), " \x00")
}

// Values returns the header as named fields of BPBSchema.
func (b *BPB) Values() (record.Values, error) {
	raw, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return record.Decode(BPBSchema, raw)
}

func (b *BPB) String() string {
	values, err := b.Values()
	if err != nil {
		return fmt.Sprintf("Bpb(%v)", err)
	}
	return BPBSchema.Format("Bpb", values)
}

// validate checks that the fields describe a FAT12/16 volume this package can
// mount. FAT32 is not detected explicitly, its zero sectorsPerFat16 and
// rootEntryCount fail the checks.
func (b *BPB) validate() error {
	var problem string
	switch {
	case b.BytesPerSector != sector.Size:
		problem = fmt.Sprintf("unsupported sector size %d", b.BytesPerSector)
	case b.SectorsPerCluster == 0 || b.SectorsPerCluster&(b.SectorsPerCluster-1) != 0:
		problem = fmt.Sprintf("sectors per cluster %d is not a power of two", b.SectorsPerCluster)
	case b.ReservedSectorCount == 0:
		problem = "no reserved sectors"
	case b.NumFATs == 0:
		problem = "no FAT"
	case b.RootEntryCount == 0:
		problem = "no root directory entries"
	case b.FATSize16 == 0:
		problem = "no sectors per FAT"
	case b.TotalSectors() == 0:
		problem = "no sectors"
	}

	if problem != "" {
		return checkpoint.Wrap(errors.New(problem), ErrNotFAT)
	}
	return nil
}
