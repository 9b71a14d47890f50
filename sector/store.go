// Package sector holds the raw sectors of a disk image in memory.
//
// The Store is the single owner of all image bytes. Everything else refers
// to sectors by index and reads or writes through bounds-checked methods.
// Loading and flushing the image goes through an afero.Fs, so the backing
// medium may be the OS filesystem or an in-memory one.
package sector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/aligator/fatimg/checkpoint"
	"github.com/spf13/afero"
)

// Size is the size of one sector in bytes.
const Size = 512

// These errors may occur while accessing the store.
var (
	ErrOutOfRange = errors.New("sector: access out of range")
	ErrTxActive   = errors.New("sector: a transaction is already active")
	ErrTxDone     = errors.New("sector: transaction already finished")
	ErrLoad       = errors.New("sector: could not load image")
	ErrFlush      = errors.New("sector: could not flush image")
)

// Store is a mutable array of Size byte sectors.
type Store struct {
	data []byte

	// journal holds the pre-image of every sector written during the active
	// transaction, keyed by sector index.
	journal map[uint32][]byte
}

// New returns a zeroed store with count sectors.
func New(count int) *Store {
	return &Store{data: make([]byte, count*Size)}
}

// FromBytes returns a store holding a copy of b. A trailing partial sector is
// padded with zeros.
func FromBytes(b []byte) *Store {
	count := (len(b) + Size - 1) / Size
	s := New(count)
	copy(s.data, b)
	return s
}

// Load reads the whole image at path from fs.
func Load(fs afero.Fs, path string) (*Store, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrLoad)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrLoad)
	}
	return FromBytes(b), nil
}

// Flush writes every sector to path on fs. The image is first written to a
// temporary file next to path which is then renamed over it.
func (s *Store) Flush(fs afero.Fs, path string) error {
	tmp, err := afero.TempFile(fs, filepath.Dir(path), ".fatimg-*")
	if err != nil {
		return checkpoint.Wrap(err, ErrFlush)
	}
	tmpName := tmp.Name()
	ok := false
	defer func() {
		_ = tmp.Close()
		if !ok {
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(s.data); err != nil {
		return checkpoint.Wrap(err, ErrFlush)
	}
	if err := tmp.Sync(); err != nil {
		return checkpoint.Wrap(err, ErrFlush)
	}
	if err := tmp.Close(); err != nil {
		return checkpoint.Wrap(err, ErrFlush)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		return checkpoint.Wrap(err, ErrFlush)
	}
	ok = true
	return nil
}

// Len returns the number of sectors.
func (s *Store) Len() int {
	return len(s.data) / Size
}

// Bytes returns a copy of the whole image.
func (s *Store) Bytes() []byte {
	return append([]byte(nil), s.data...)
}

func (s *Store) span(index uint32, off, n int) (int, error) {
	if int64(index) >= int64(s.Len()) {
		return 0, fmt.Errorf("%w: sector %d of %d", ErrOutOfRange, index, s.Len())
	}
	if off < 0 || n < 0 || off+n > Size {
		return 0, fmt.Errorf("%w: bytes [%d, %d) of sector %d", ErrOutOfRange, off, off+n, index)
	}
	return int(index)*Size + off, nil
}

// Read returns a copy of sector index.
func (s *Store) Read(index uint32) ([]byte, error) {
	return s.ReadAt(index, 0, Size)
}

// ReadAt returns a copy of n bytes at offset off of sector index.
func (s *Store) ReadAt(index uint32, off, n int) ([]byte, error) {
	start, err := s.span(index, off, n)
	if err != nil {
		return nil, checkpoint.From(err)
	}
	return append([]byte(nil), s.data[start:start+n]...), nil
}

// Write copies p to offset off of sector index.
func (s *Store) Write(index uint32, off int, p []byte) error {
	start, err := s.span(index, off, len(p))
	if err != nil {
		return checkpoint.From(err)
	}
	s.remember(index)
	copy(s.data[start:], p)
	return nil
}

// Uint16 reads a little-endian uint16 at offset off of sector index.
func (s *Store) Uint16(index uint32, off int) (uint16, error) {
	start, err := s.span(index, off, 2)
	if err != nil {
		return 0, checkpoint.From(err)
	}
	return binary.LittleEndian.Uint16(s.data[start:]), nil
}

// PutUint16 writes v little endian to offset off of sector index.
func (s *Store) PutUint16(index uint32, off int, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return s.Write(index, off, b[:])
}

// Zero clears sector index.
func (s *Store) Zero(index uint32) error {
	return s.Write(index, 0, make([]byte, Size))
}

// IsZero reports whether every byte of sector index is zero.
func (s *Store) IsZero(index uint32) (bool, error) {
	start, err := s.span(index, 0, Size)
	if err != nil {
		return false, checkpoint.From(err)
	}
	for _, b := range s.data[start : start+Size] {
		if b != 0 {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) remember(index uint32) {
	if s.journal == nil {
		return
	}
	if _, ok := s.journal[index]; ok {
		return
	}
	start := int(index) * Size
	s.journal[index] = append([]byte(nil), s.data[start:start+Size]...)
}

// Tx is an undo journal over a Store. Until Commit or Rollback is called,
// the original content of every written sector is kept.
type Tx struct {
	s    *Store
	done bool
}

// Begin starts a transaction. Only one transaction may be active at a time.
func (s *Store) Begin() (*Tx, error) {
	if s.journal != nil {
		return nil, checkpoint.From(ErrTxActive)
	}
	s.journal = make(map[uint32][]byte)
	return &Tx{s: s}, nil
}

// Touched returns the number of distinct sectors written so far.
func (tx *Tx) Touched() int {
	return len(tx.s.journal)
}

// Commit keeps all writes done during the transaction.
func (tx *Tx) Commit() error {
	if tx.done {
		return checkpoint.From(ErrTxDone)
	}
	tx.done = true
	tx.s.journal = nil
	return nil
}

// Rollback restores every sector written during the transaction.
// Calling it after Commit is a no-op, so it can be deferred.
func (tx *Tx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	for index, pre := range tx.s.journal {
		copy(tx.s.data[int(index)*Size:], pre)
	}
	tx.s.journal = nil
	return nil
}
