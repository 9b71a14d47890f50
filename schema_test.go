package fatimg

import (
	"testing"

	"github.com/aligator/fatimg/record"
	"github.com/google/go-cmp/cmp"
)

// schemaRoundTrip decodes raw with schema and encodes it again.
func schemaRoundTrip(t *testing.T, schema record.Schema, raw []byte) []byte {
	t.Helper()

	values, err := record.Decode(schema, raw)
	if err != nil {
		t.Fatalf("record.Decode() error = %v", err)
	}
	encoded, err := record.Encode(schema, values)
	if err != nil {
		t.Fatalf("record.Encode() error = %v", err)
	}
	return encoded
}

func TestBPBSchema(t *testing.T) {
	formatted := testingBPB(t)

	tests := []struct {
		name string
		bpb  BPB
	}{
		{
			name: "formatted",
			bpb:  formatted,
		},
		{
			name: "every field set",
			bpb: BPB{
				JumpBoot:            [3]byte{0xEB, 0x58, 0x90},
				OEMName:             [8]byte{'M', 'S', 'W', 'I', 'N', '4', '.', '1'},
				BytesPerSector:      0x0201,
				SectorsPerCluster:   0x03,
				ReservedSectorCount: 0x0405,
				NumFATs:             0x06,
				RootEntryCount:      0x0708,
				TotalSectors16:      0x090A,
				Media:               0x0B,
				FATSize16:           0x0C0D,
				SectorsPerTrack:     0x0E0F,
				NumberOfHeads:       0x1011,
				HiddenSectors:       0x12131415,
				TotalSectors32:      0x16171819,
				FAT16: FAT16SpecificData{
					DriveNumber:    0x1A,
					NTFlags:        0x1B,
					BootSignature:  0x1C,
					VolumeID:       0x1D1E1F20,
					VolumeLabel:    [11]byte{'L', 'A', 'B', 'E', 'L', '0', '1', '2', '3', '4', '5'},
					FileSystemType: [8]byte{'F', 'A', 'T', '1', '2', ' ', ' ', ' '},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := tt.bpb.Bytes()
			if err != nil {
				t.Fatalf("BPB.Bytes() error = %v", err)
			}
			if len(want) != BPBSchema.Size() {
				t.Fatalf("BPB.Bytes() has %d bytes, BPBSchema.Size() = %d", len(want), BPBSchema.Size())
			}

			if diff := cmp.Diff(want, schemaRoundTrip(t, BPBSchema, want)); diff != "" {
				t.Errorf("BPBSchema mismatch (-restruct +schema):\n%s", diff)
			}
		})
	}
}

func TestPartitionSchema(t *testing.T) {
	store, _ := testingVolume(t, smallImageSectors, smallImage)
	raw, err := store.Read(0)
	if err != nil {
		t.Fatal(err)
	}
	m, err := ParseMBR(raw)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		partition Partition
		raw       []byte
	}{
		{
			name:      "formatted",
			partition: m.Partitions[0],
			raw:       raw[partitionTableOffset : partitionTableOffset+partitionEntrySize],
		},
		{
			name:      "unused",
			partition: m.Partitions[3],
			raw:       raw[partitionTableOffset+3*partitionEntrySize : partitionTableOffset+4*partitionEntrySize],
		},
		{
			name: "every field set",
			partition: Partition{
				BootIndicator: 0x80,
				StartCHS:      [3]byte{0x01, 0x02, 0x03},
				Type:          0x0E,
				EndCHS:        [3]byte{0x04, 0x05, 0x06},
				StartLBA:      0x0708090A,
				SectorCount:   0x0B0C0D0E,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := pack(&tt.partition)
			if err != nil {
				t.Fatalf("pack() error = %v", err)
			}
			if len(want) != PartitionSchema.Size() {
				t.Fatalf("pack() has %d bytes, PartitionSchema.Size() = %d", len(want), PartitionSchema.Size())
			}
			if tt.raw != nil {
				if diff := cmp.Diff(tt.raw, want); diff != "" {
					t.Errorf("pack() differs from the MBR (-want +got):\n%s", diff)
				}
			}

			if diff := cmp.Diff(want, schemaRoundTrip(t, PartitionSchema, want)); diff != "" {
				t.Errorf("PartitionSchema mismatch (-restruct +schema):\n%s", diff)
			}

			values, err := record.Decode(PartitionSchema, want)
			if err != nil {
				t.Fatal(err)
			}
			if got := values["startLBA"].Uint; got != uint64(tt.partition.StartLBA) {
				t.Errorf("startLBA = %#x, want %#x", got, tt.partition.StartLBA)
			}
			if got := values["sectorCount"].Uint; got != uint64(tt.partition.SectorCount) {
				t.Errorf("sectorCount = %#x, want %#x", got, tt.partition.SectorCount)
			}
		})
	}
}
