package fatimg

import (
	"errors"
	"fmt"

	"github.com/aligator/fatimg/checkpoint"
	"github.com/aligator/fatimg/record"
	"github.com/aligator/fatimg/sector"
)

const (
	partitionTableOffset = 446
	partitionEntrySize   = 16
	signatureOffset      = 510

	// bootSignature is 0x55 0xAA read as little endian.
	bootSignature = 0xAA55
)

// MBR partition types which may hold a FAT12/16 volume.
const (
	PartitionTypeFAT12      uint8 = 0x01
	PartitionTypeFAT16Small uint8 = 0x04
	PartitionTypeFAT16      uint8 = 0x06
	PartitionTypeFAT16LBA   uint8 = 0x0E
)

var ErrParseMBR = errors.New("could not parse the master boot record")

// ParseMBR decodes the partition table from sector 0 of an image.
// The boot signature is not checked, see HasBootSignature.
func ParseMBR(raw []byte) (*MBR, error) {
	if len(raw) < sector.Size {
		return nil, checkpoint.Wrap(fmt.Errorf("need %d bytes, got %d", sector.Size, len(raw)), ErrParseMBR)
	}

	m := &MBR{}
	if err := unpack(raw[:sector.Size], m); err != nil {
		return nil, checkpoint.Wrap(err, ErrParseMBR)
	}
	return m, nil
}

// Bytes encodes the whole 512 byte sector.
func (m *MBR) Bytes() ([]byte, error) {
	return pack(m)
}

// HasBootSignature reports whether the sector ends with 0x55 0xAA.
func (m *MBR) HasBootSignature() bool {
	return m.Signature == bootSignature
}

// Partition returns the entry at index, which must be in [0, 4).
func (m *MBR) Partition(index int) (Partition, error) {
	if index < 0 || index >= len(m.Partitions) {
		return Partition{}, checkpoint.Wrap(fmt.Errorf("index %d", index), ErrNoPartition)
	}
	return m.Partitions[index], nil
}

// IsEmpty reports an unused table entry.
func (p Partition) IsEmpty() bool {
	return p.Type == 0 && p.SectorCount == 0
}

// IsFAT reports whether the partition type denotes a FAT12 or FAT16 volume.
func (p Partition) IsFAT() bool {
	switch p.Type {
	case PartitionTypeFAT12, PartitionTypeFAT16Small, PartitionTypeFAT16, PartitionTypeFAT16LBA:
		return true
	default:
		return false
	}
}

// Values returns the entry as named fields of PartitionSchema.
func (p Partition) Values() (record.Values, error) {
	raw, err := pack(&p)
	if err != nil {
		return nil, err
	}
	return record.Decode(PartitionSchema, raw)
}

func (p Partition) String() string {
	values, err := p.Values()
	if err != nil {
		return fmt.Sprintf("Partition(%v)", err)
	}
	return PartitionSchema.Format("Partition", values)
}
