package fatimg

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testingBPB returns the BPB of a freshly formatted smallImage.
func testingBPB(t *testing.T) BPB {
	t.Helper()

	_, v := testingVolume(t, smallImageSectors, smallImage)
	return v.BPB()
}

func TestParseBPB(t *testing.T) {
	store, _ := testingVolume(t, smallImageSectors, smallImage)
	raw, err := store.Read(1)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ParseBPB(raw)
	if err != nil {
		t.Fatalf("ParseBPB() error = %v", err)
	}

	want := &BPB{
		JumpBoot:            [3]byte{0xEB, 0x3C, 0x90},
		OEMName:             [8]byte{'F', 'A', 'T', 'I', 'M', 'G', ' ', ' '},
		BytesPerSector:      512,
		SectorsPerCluster:   1,
		ReservedSectorCount: 1,
		NumFATs:             2,
		RootEntryCount:      16,
		TotalSectors16:      63,
		Media:               0xF8,
		FATSize16:           1,
		SectorsPerTrack:     32,
		NumberOfHeads:       64,
		HiddenSectors:       1,
		FAT16: FAT16SpecificData{
			DriveNumber:    0x80,
			BootSignature:  0x29,
			VolumeLabel:    [11]byte{'T', 'E', 'S', 'T', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
			FileSystemType: [8]byte{'F', 'A', 'T', '1', '6', ' ', ' ', ' '},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseBPB() mismatch (-want +got):\n%s", diff)
	}

	encoded, err := got.Bytes()
	if err != nil {
		t.Fatalf("BPB.Bytes() error = %v", err)
	}
	if diff := cmp.Diff(raw[:bpbSize], encoded); diff != "" {
		t.Errorf("BPB.Bytes() mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseBPB(raw[:bpbSize-1]); !errors.Is(err, ErrParseBPB) {
		t.Errorf("ParseBPB() of a short buffer error = %v, want %v", err, ErrParseBPB)
	}
}

func TestBPB_TotalSectors(t *testing.T) {
	tests := []struct {
		name  string
		small uint16
		large uint32
		want  uint32
	}{
		{name: "16 bit field", small: 2880, want: 2880},
		{name: "16 bit field wins", small: 2880, large: 100000, want: 2880},
		{name: "32 bit field", large: 100000, want: 100000},
		{name: "none", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &BPB{TotalSectors16: tt.small, TotalSectors32: tt.large}
			if got := b.TotalSectors(); got != tt.want {
				t.Errorf("BPB.TotalSectors() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBPB_validate(t *testing.T) {
	tests := []struct {
		name    string
		patch   func(b *BPB)
		wantErr error
	}{
		{name: "formatted", patch: func(b *BPB) {}},
		{name: "4096 byte sectors", patch: func(b *BPB) { b.BytesPerSector = 4096 }, wantErr: ErrNotFAT},
		{name: "no sectors per cluster", patch: func(b *BPB) { b.SectorsPerCluster = 0 }, wantErr: ErrNotFAT},
		{name: "3 sectors per cluster", patch: func(b *BPB) { b.SectorsPerCluster = 3 }, wantErr: ErrNotFAT},
		{name: "64 sectors per cluster", patch: func(b *BPB) { b.SectorsPerCluster = 64 }},
		{name: "no reserved sectors", patch: func(b *BPB) { b.ReservedSectorCount = 0 }, wantErr: ErrNotFAT},
		{name: "no FATs", patch: func(b *BPB) { b.NumFATs = 0 }, wantErr: ErrNotFAT},
		{name: "FAT32 like root", patch: func(b *BPB) { b.RootEntryCount = 0 }, wantErr: ErrNotFAT},
		{name: "FAT32 like FAT size", patch: func(b *BPB) { b.FATSize16 = 0 }, wantErr: ErrNotFAT},
		{name: "no sectors", patch: func(b *BPB) { b.TotalSectors16 = 0 }, wantErr: ErrNotFAT},
		{name: "32 bit sector count", patch: func(b *BPB) { b.TotalSectors32, b.TotalSectors16 = 63, 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testingBPB(t)
			tt.patch(&b)
			if err := b.validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("BPB.validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBPB_Label(t *testing.T) {
	tests := []struct {
		name  string
		label [11]byte
		want  string
	}{
		{name: "space padded", label: [11]byte{'T', 'E', 'S', 'T', ' ', ' ', ' ', ' ', ' ', ' ', ' '}, want: "TEST"},
		{name: "zero padded", label: [11]byte{'T', 'E', 'S', 'T'}, want: "TEST"},
		{name: "inner space", label: [11]byte{'N', 'O', ' ', 'N', 'A', 'M', 'E', ' ', ' ', ' ', ' '}, want: "NO NAME"},
		{name: "full", label: [11]byte{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K'}, want: "ABCDEFGHIJK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &BPB{FAT16: FAT16SpecificData{VolumeLabel: tt.label}}
			if got := b.Label(); got != tt.want {
				t.Errorf("BPB.Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBPB_String(t *testing.T) {
	b := testingBPB(t)

	got := b.String()
	if !strings.HasPrefix(got, "Bpb(") {
		t.Errorf("BPB.String() = %q, want prefix %q", got, "Bpb(")
	}
	for _, want := range []string{"bytesPerSector: 512", "numberOfFats: 2", "rootEntryCount: 16", "hiddenSectors: 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("BPB.String() = %q, does not contain %q", got, want)
		}
	}
}
