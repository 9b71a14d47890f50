package fatimg

import "github.com/aligator/fatimg/record"

// PartitionSchema describes one 16 byte partition table entry.
var PartitionSchema = record.Schema{
	{Name: "bootIndicator", Offset: 0, Length: 1, Kind: record.KindByte},
	{Name: "startCHS", Offset: 1, Length: 3, Kind: record.KindUint},
	{Name: "type", Offset: 4, Length: 1, Kind: record.KindByte},
	{Name: "endCHS", Offset: 5, Length: 3, Kind: record.KindUint},
	{Name: "startLBA", Offset: 8, Length: 4, Kind: record.KindUint},
	{Name: "sectorCount", Offset: 12, Length: 4, Kind: record.KindUint},
}

// BPBSchema describes the BIOS Parameter Block and the FAT12/16 extension.
// hiddenSectors is read as the full 32 bit field.
var BPBSchema = record.Schema{
	{Name: "jumpBoot", Offset: 0, Length: 3, Kind: record.KindUint},
	{Name: "oemName", Offset: 3, Length: 8, Kind: record.KindText},
	{Name: "bytesPerSector", Offset: 11, Length: 2, Kind: record.KindUint},
	{Name: "sectorsPerCluster", Offset: 13, Length: 1, Kind: record.KindByte},
	{Name: "reservedSectors", Offset: 14, Length: 2, Kind: record.KindUint},
	{Name: "numberOfFats", Offset: 16, Length: 1, Kind: record.KindByte},
	{Name: "rootEntryCount", Offset: 17, Length: 2, Kind: record.KindUint},
	{Name: "totalSectorsSmall", Offset: 19, Length: 2, Kind: record.KindUint},
	{Name: "mediaDescriptor", Offset: 21, Length: 1, Kind: record.KindByte},
	{Name: "sectorsPerFat", Offset: 22, Length: 2, Kind: record.KindUint},
	{Name: "sectorsPerTrack", Offset: 24, Length: 2, Kind: record.KindUint},
	{Name: "numberOfHeads", Offset: 26, Length: 2, Kind: record.KindUint},
	{Name: "hiddenSectors", Offset: 28, Length: 4, Kind: record.KindUint},
	{Name: "totalSectorsLarge", Offset: 32, Length: 4, Kind: record.KindUint},
	{Name: "driveNumber", Offset: 36, Length: 1, Kind: record.KindByte},
	{Name: "ntFlags", Offset: 37, Length: 1, Kind: record.KindByte},
	{Name: "extSignature", Offset: 38, Length: 1, Kind: record.KindByte},
	{Name: "volumeId", Offset: 39, Length: 4, Kind: record.KindUint},
	{Name: "volumeLabel", Offset: 43, Length: 11, Kind: record.KindText},
	{Name: "systemId", Offset: 54, Length: 8, Kind: record.KindText},
}

// EntrySchema describes a 32 byte directory entry. createTime is 2 bytes wide.
var EntrySchema = record.Schema{
	{Name: "name", Offset: 0, Length: 11, Kind: record.KindText},
	{Name: "attributes", Offset: 11, Length: 1, Kind: record.KindByte},
	{Name: "ntReserved", Offset: 12, Length: 1, Kind: record.KindByte},
	{Name: "createTimeTenths", Offset: 13, Length: 1, Kind: record.KindByte},
	{Name: "createTime", Offset: 14, Length: 2, Kind: record.KindUint},
	{Name: "createDate", Offset: 16, Length: 2, Kind: record.KindUint},
	{Name: "lastAccessDate", Offset: 18, Length: 2, Kind: record.KindUint},
	{Name: "firstClusterHi", Offset: 20, Length: 2, Kind: record.KindUint},
	{Name: "writeTime", Offset: 22, Length: 2, Kind: record.KindUint},
	{Name: "writeDate", Offset: 24, Length: 2, Kind: record.KindUint},
	{Name: "firstClusterLo", Offset: 26, Length: 2, Kind: record.KindUint},
	{Name: "fileSize", Offset: 28, Length: 4, Kind: record.KindUint},
}

// Offsets inside a directory entry used by the slot scans.
const (
	entryAttrOffset         = 11
	entryFirstClusterOffset = 26
)
