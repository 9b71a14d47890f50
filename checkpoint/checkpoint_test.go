package checkpoint

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

var (
	errCause = errors.New("sector out of range")
	errOuter = errors.New("could not read FAT entry")
)

func TestFrom(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantNil bool
		wantIs  []error
	}{
		{
			name:    "nil stays nil",
			err:     nil,
			wantNil: true,
		},
		{
			name:   "cause is kept",
			err:    errCause,
			wantIs: []error{errCause},
		},
		{
			name:   "EOF is not wrapped",
			err:    io.EOF,
			wantIs: []error{io.EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := From(tt.err)
			if (got == nil) != tt.wantNil {
				t.Fatalf("From() = %v, wantNil %v", got, tt.wantNil)
			}
			for _, target := range tt.wantIs {
				if !errors.Is(got, target) {
					t.Errorf("errors.Is(From(), %v) = false", target)
				}
			}
		})
	}

	if From(io.EOF) != io.EOF {
		t.Error("From(io.EOF) must return io.EOF itself")
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name      string
		prev      error
		err       error
		wantNil   bool
		wantIs    []error
		wantNotIs []error
	}{
		{
			name:    "nil prev stays nil",
			prev:    nil,
			err:     errOuter,
			wantNil: true,
		},
		{
			name:   "both errors match",
			prev:   errCause,
			err:    errOuter,
			wantIs: []error{errCause, errOuter},
		},
		{
			name:      "nil err only matches prev",
			prev:      errCause,
			err:       nil,
			wantIs:    []error{errCause},
			wantNotIs: []error{errOuter},
		},
		{
			name:   "nested checkpoints",
			prev:   Wrap(errCause, os.ErrNotExist),
			err:    errOuter,
			wantIs: []error{errCause, errOuter, os.ErrNotExist},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.prev, tt.err)
			if (got == nil) != tt.wantNil {
				t.Fatalf("Wrap() = %v, wantNil %v", got, tt.wantNil)
			}
			for _, target := range tt.wantIs {
				if !errors.Is(got, target) {
					t.Errorf("errors.Is(Wrap(), %v) = false", target)
				}
			}
			for _, target := range tt.wantNotIs {
				if errors.Is(got, target) {
					t.Errorf("errors.Is(Wrap(), %v) = true", target)
				}
			}
		})
	}
}

func TestCheckpoint_Error(t *testing.T) {
	err := Wrap(errCause, errOuter)
	msg := err.Error()

	if !strings.HasPrefix(msg, "checkpoint_test.go:") {
		t.Errorf("Error() = %q, want the wrap site as prefix", msg)
	}
	for _, part := range []string{errOuter.Error(), errCause.Error()} {
		if !strings.Contains(msg, part) {
			t.Errorf("Error() = %q, missing %q", msg, part)
		}
	}
}
