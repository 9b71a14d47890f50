package fatimg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/aligator/fatimg/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile = errors.New("could not read file completely")
	ErrSeekFile = errors.New("could not seek inside of the file")
	ErrReadDir  = errors.New("could not read the directory")
)

// fatFileFs provides all methods needed from a volume for File.
// It mainly exists to be able to mock the Volume in tests.
// Generated mock using mockgen:
//
//	mockgen -source=file.go -destination=file_mock.go -package fatimg
type fatFileFs interface {
	readFileAt(cluster Cluster, fileSize int64, offset int64, readSize int64) ([]byte, error)
	readDir(cluster Cluster) ([]DirEntry, error)
}

// File is an open file or directory of a Volume. Its content can be read,
// writing is not supported.
type File struct {
	fs   fatFileFs
	path string

	isDirectory bool
	isReadOnly  bool
	isHidden    bool
	isSystem    bool

	firstCluster Cluster
	stat         os.FileInfo
	offset       int64
}

func newFile(fs fatFileFs, path string, entry DirEntry) *File {
	attr := entry.Header.Attribute
	return &File{
		fs:           fs,
		path:         path,
		isDirectory:  entry.IsDir(),
		isReadOnly:   attr&AttrReadOnly == AttrReadOnly,
		isHidden:     attr&AttrHidden == AttrHidden,
		isSystem:     attr&AttrSystem == AttrSystem,
		firstCluster: entry.FirstCluster(),
		stat:         entry.FileInfo(),
	}
}

func (f *File) Close() error {
	f.fs = nil
	f.path = ""
	f.isDirectory = false
	f.isReadOnly = false
	f.isHidden = false
	f.isSystem = false
	f.firstCluster = 0
	f.stat = nil
	f.offset = 0

	return nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if p == nil {
		return 0, nil
	}

	if f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}

	// Reading a file if the size has been already reached, makes no sense.
	if f.stat.Size() <= f.offset {
		return 0, io.EOF
	}

	offset := f.offset
	data, err := f.fs.readFileAt(f.firstCluster, f.stat.Size(), offset, int64(len(p)))

	if data != nil {
		copy(p, data)
	}

	// Seek even if an error occurred, errors from reading are used even if seek also errors.
	_, seekErr := f.Seek(int64(len(data)), io.SeekCurrent)

	if err != nil {
		return len(data), checkpoint.Wrap(err, ErrReadFile)
	}

	if seekErr != nil {
		return len(data), checkpoint.Wrap(seekErr, ErrReadFile)
	}

	return len(data), nil
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if p == nil {
		return 0, nil
	}

	if f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}

	// Reading over the end makes no sense.
	if f.stat.Size() <= off {
		return 0, io.EOF
	}

	size := len(p)
	data, err := f.fs.readFileAt(f.firstCluster, f.stat.Size(), off, int64(size))

	if data != nil {
		copy(p, data)
	}

	if err != nil {
		return len(data), checkpoint.Wrap(err, ErrReadFile)
	}

	// io.ReaderAt requires an error for short reads.
	if len(data) < size {
		return len(data), io.EOF
	}
	return len(data), nil
}

// Seek jumps to a specific offset in the file. This affects all Read operation except ReadAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.stat.Size() + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 || offset > f.stat.Size() {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	f.offset = offset
	return offset, nil
}

// Write is not supported, created files stay empty.
func (f *File) Write(p []byte) (n int, err error) {
	return 0, checkpoint.From(ErrUnsupported)
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	return 0, checkpoint.From(ErrUnsupported)
}

func (f *File) Name() string {
	return f.stat.Name()
}

// Readdir reads the contents of a directory without "." and "..".
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.isDirectory {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	content, err := f.fs.readDir(f.firstCluster)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	if f.offset > int64(len(content)) {
		f.offset = int64(len(content))
	}

	end := len(content)

	if count > 0 && int64(len(content)) < f.offset+int64(count) {
		count = len(content) - int(f.offset)
		if count == 0 {
			err = io.EOF
		}
	}

	if count > 0 {
		end = int(f.offset) + count
	}

	content = content[f.offset:end]
	f.offset = int64(end)

	result := make([]os.FileInfo, len(content))
	for i := range content {
		result[i] = content[i].FileInfo()
	}

	return result, err
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, err
}

func (f *File) Stat() (os.FileInfo, error) {
	return f.stat, nil
}

// Sync does nothing, all changes are kept in the sector store until it is flushed.
func (f *File) Sync() error {
	return nil
}

func (f *File) Truncate(size int64) error {
	return checkpoint.From(ErrUnsupported)
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}
