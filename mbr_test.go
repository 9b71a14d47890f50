package fatimg

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMBR(t *testing.T) {
	store, _ := testingVolume(t, smallImageSectors, smallImage)
	raw, err := store.Read(0)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		raw     []byte
		want    Partition
		wantSig bool
		wantErr error
	}{
		{
			name: "formatted image",
			raw:  raw,
			want: Partition{
				StartCHS:    [3]byte{0xFE, 0xFF, 0xFF},
				Type:        PartitionTypeFAT16Small,
				EndCHS:      [3]byte{0xFE, 0xFF, 0xFF},
				StartLBA:    1,
				SectorCount: smallImageSectors - 1,
			},
			wantSig: true,
		},
		{
			name:    "zeroed sector",
			raw:     make([]byte, 512),
			want:    Partition{},
			wantSig: false,
		},
		{
			name:    "short buffer",
			raw:     raw[:511],
			wantErr: ErrParseMBR,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMBR(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseMBR() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if diff := cmp.Diff(tt.want, got.Partitions[0]); diff != "" {
				t.Errorf("ParseMBR() partition 0 mismatch (-want +got):\n%s", diff)
			}
			if got.HasBootSignature() != tt.wantSig {
				t.Errorf("MBR.HasBootSignature() = %v, want %v", got.HasBootSignature(), tt.wantSig)
			}

			encoded, err := got.Bytes()
			if err != nil {
				t.Fatalf("MBR.Bytes() error = %v", err)
			}
			if diff := cmp.Diff(tt.raw, encoded); diff != "" {
				t.Errorf("MBR.Bytes() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMBR_Partition(t *testing.T) {
	m := &MBR{}
	m.Partitions[3] = Partition{Type: PartitionTypeFAT12, StartLBA: 7, SectorCount: 9}

	tests := []struct {
		name    string
		index   int
		want    Partition
		wantErr error
	}{
		{name: "first", index: 0, want: Partition{}},
		{name: "last", index: 3, want: m.Partitions[3]},
		{name: "too large", index: 4, wantErr: ErrNoPartition},
		{name: "negative", index: -1, wantErr: ErrNoPartition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Partition(tt.index)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("MBR.Partition() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("MBR.Partition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPartition_classification(t *testing.T) {
	tests := []struct {
		name      string
		partition Partition
		wantEmpty bool
		wantFAT   bool
	}{
		{name: "unused", partition: Partition{}, wantEmpty: true},
		{name: "FAT12", partition: Partition{Type: 0x01, SectorCount: 10}, wantFAT: true},
		{name: "FAT16 < 32M", partition: Partition{Type: 0x04, SectorCount: 10}, wantFAT: true},
		{name: "FAT16", partition: Partition{Type: 0x06, SectorCount: 10}, wantFAT: true},
		{name: "FAT16 LBA", partition: Partition{Type: 0x0E, SectorCount: 10}, wantFAT: true},
		{name: "FAT32 LBA", partition: Partition{Type: 0x0C, SectorCount: 10}},
		{name: "Linux", partition: Partition{Type: 0x83, SectorCount: 10}},
		{name: "typed but without sectors", partition: Partition{Type: 0x06}, wantFAT: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.partition.IsEmpty(); got != tt.wantEmpty {
				t.Errorf("Partition.IsEmpty() = %v, want %v", got, tt.wantEmpty)
			}
			if got := tt.partition.IsFAT(); got != tt.wantFAT {
				t.Errorf("Partition.IsFAT() = %v, want %v", got, tt.wantFAT)
			}
		})
	}
}

func TestPartition_String(t *testing.T) {
	p := Partition{Type: PartitionTypeFAT16, StartLBA: 2048, SectorCount: 4096}

	got := p.String()
	for _, want := range []string{"Partition(", "2048", "4096"} {
		if !strings.Contains(got, want) {
			t.Errorf("Partition.String() = %q, does not contain %q", got, want)
		}
	}
}
