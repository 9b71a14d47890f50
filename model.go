// File model contains the structs which match the direct structures of the
// disk image: the partition table, the FAT12/16 boot sector and directory entries.

package fatimg

import (
	"encoding/binary"

	"github.com/aligator/fatimg/checkpoint"
	"github.com/go-restruct/restruct"
)

// Directory entry attributes.
const (
	AttrReadOnly  uint8 = 0x01
	AttrHidden    uint8 = 0x02
	AttrSystem    uint8 = 0x04
	AttrVolumeID  uint8 = 0x08
	AttrDirectory uint8 = 0x10
	AttrArchive   uint8 = 0x20
	AttrLongName        = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

const (
	entrySize = 32
	bpbSize   = 62
)

// Partition is one of the four entries of the MBR partition table.
type Partition struct {
	BootIndicator uint8
	StartCHS      [3]byte
	Type          uint8
	EndCHS        [3]byte
	StartLBA      uint32
	SectorCount   uint32
}

// MBR is the Master Boot Record found in sector 0 of a partitioned image.
type MBR struct {
	CodeArea   [446]byte
	Partitions [4]Partition
	Signature  uint16
}

// BPB is the BIOS Parameter Block of a FAT12/16 volume, followed by the
// FAT12/16 extended boot record.
type BPB struct {
	JumpBoot            [3]byte
	OEMName             [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   uint8
	ReservedSectorCount uint16
	NumFATs             uint8
	RootEntryCount      uint16
	TotalSectors16      uint16
	Media               uint8
	FATSize16           uint16
	SectorsPerTrack     uint16
	NumberOfHeads       uint16
	HiddenSectors       uint32
	TotalSectors32      uint32
	FAT16               FAT16SpecificData
}

// FAT16SpecificData is the extended boot record shared by FAT12 and FAT16.
type FAT16SpecificData struct {
	DriveNumber    uint8
	NTFlags        uint8
	BootSignature  uint8
	VolumeID       uint32
	VolumeLabel    [11]byte
	FileSystemType [8]byte
}

// EntryHeader is a 32 byte short-name directory entry.
type EntryHeader struct {
	Name            [11]byte
	Attribute       uint8
	NTReserved      uint8
	CreateTimeTenth uint8
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}

var byteOrder = binary.LittleEndian

func unpack(raw []byte, v interface{}) error {
	return checkpoint.From(restruct.Unpack(raw, byteOrder, v))
}

func pack(v interface{}) ([]byte, error) {
	raw, err := restruct.Pack(byteOrder, v)
	if err != nil {
		return nil, checkpoint.From(err)
	}
	return raw, nil
}
