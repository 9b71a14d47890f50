package fatimg

import (
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aligator/fatimg/checkpoint"
	"github.com/spf13/afero"
)

// Fs exposes a Volume as afero.Fs. Files and directories can be created
// and read. Everything which would change or remove existing entries fails
// with ErrUnsupported.
//
// Fs does not lock; the Volume must not be changed concurrently.
type Fs struct {
	vol *Volume
}

var _ afero.Fs = (*Fs)(nil)

// NewFs returns an afero.Fs for vol.
func NewFs(vol *Volume) *Fs {
	return &Fs{vol: vol}
}

// Volume returns the underlying volume.
func (fs *Fs) Volume() *Volume {
	return fs.vol
}

func pathError(op, name string, err error) error {
	return &os.PathError{Op: op, Path: name, Err: err}
}

// cleanPath makes name absolute and removes "." and ".." elements lexically.
func cleanPath(name string) string {
	return path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	if _, err := fs.vol.Mkdir(cleanPath(name)); err != nil {
		return pathError("mkdir", name, err)
	}
	return nil
}

func (fs *Fs) MkdirAll(name string, perm os.FileMode) error {
	cur := "/"
	for _, part := range splitPath(cleanPath(name)) {
		cur = path.Join(cur, part)

		e, err := fs.vol.Resolve(cur)
		if err == nil {
			if !e.IsDir() {
				return pathError("mkdir", cur, checkpoint.From(ErrNotDir))
			}
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return pathError("mkdir", cur, err)
		}

		if _, err := fs.vol.Mkdir(cur); err != nil {
			return pathError("mkdir", cur, err)
		}
	}
	return nil
}

func (fs *Fs) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile opens name for reading. With os.O_CREATE a missing file is
// created empty. Opening for writing is allowed, writes fail later.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	p := cleanPath(name)

	e, err := fs.vol.Resolve(p)
	switch {
	case err == nil:
		if flag&(os.O_CREATE|os.O_EXCL) == os.O_CREATE|os.O_EXCL {
			return nil, pathError("open", name, checkpoint.From(ErrExist))
		}
	case errors.Is(err, ErrNotFound) && flag&os.O_CREATE != 0:
		if e, err = fs.vol.CreateFile(p); err != nil {
			return nil, pathError("open", name, err)
		}
	default:
		return nil, pathError("open", name, err)
	}

	return newFile(fs.vol, p, e), nil
}

func (fs *Fs) Remove(name string) error {
	return pathError("remove", name, checkpoint.From(ErrUnsupported))
}

func (fs *Fs) RemoveAll(path string) error {
	return pathError("removeall", path, checkpoint.From(ErrUnsupported))
}

func (fs *Fs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: checkpoint.From(ErrUnsupported)}
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	e, err := fs.vol.Resolve(cleanPath(name))
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	return e.FileInfo(), nil
}

func (fs *Fs) Name() string {
	return "FAT"
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return pathError("chmod", name, checkpoint.From(ErrUnsupported))
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return pathError("chown", name, checkpoint.From(ErrUnsupported))
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return pathError("chtimes", name, checkpoint.From(ErrUnsupported))
}
