package fatimg

import (
	"testing"
	"testing/fstest"

	"github.com/spf13/afero"
)

// TestGoFS tests the own compatibility layer to io.FS.
func TestGoFS(t *testing.T) {
	gofs := NewGoFS(testingFs(t).Volume())
	if err := fstest.TestFS(gofs, "HELLO.TXT", "DIR/EMPTY.BIN"); err != nil {
		t.Fatal(err)
	}
}

// TestIOFS tests the use with the afero.IOFS compatibility layer to io.FS.
func TestIOFS(t *testing.T) {
	iofs := afero.NewIOFS(testingFs(t))
	if err := fstest.TestFS(iofs, "HELLO.TXT", "DIR/EMPTY.BIN"); err != nil {
		t.Fatal(err)
	}
}

func TestGoFs_Open(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "root", path: ".", wantErr: false},
		{name: "file", path: "HELLO.TXT", wantErr: false},
		{name: "nested file", path: "DIR/EMPTY.BIN", wantErr: false},
		{name: "absolute path", path: "/HELLO.TXT", wantErr: true},
		{name: "dot dot", path: "DIR/../HELLO.TXT", wantErr: true},
		{name: "missing", path: "NOPE.TXT", wantErr: true},
	}
	gofs := NewGoFS(testingFs(t).Volume())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gofs.Open(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("GoFs.Open() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil {
				if _, ok := got.(GoFile); !ok {
					t.Errorf("GoFs.Open() = %T, want GoFile", got)
				}
				_ = got.Close()
			}
		})
	}
}

func TestNewGoFS(t *testing.T) {
	_, v := testingVolume(t, smallImageSectors, smallImage)

	got := NewGoFS(v)
	if got == nil {
		t.Fatal("NewGoFS() = nil")
	}
	if got.Volume() != v {
		t.Errorf("NewGoFS().Volume() = %p, want %p", got.Volume(), v)
	}
}
