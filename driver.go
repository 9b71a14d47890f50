package fatimg

import (
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/aligator/fatimg/checkpoint"
	"github.com/aligator/fatimg/sector"
	"github.com/golang/glog"
	"github.com/spf13/afero"
)

// Driver owns an image: its sector store, the MBR and one Volume per FAT
// partition. It keeps a selected partition and a current directory, against
// which relative paths are resolved.
//
// A Driver is safe for concurrent use. Mutations are serialized, queries may
// run in parallel.
type Driver struct {
	mu sync.RWMutex

	store   *sector.Store
	mbr     *MBR
	volumes map[int]*Volume

	// active is the selected partition index, -1 if no volume is mounted.
	active int
	cwd    string
}

// Open parses the MBR of store and mounts every FAT partition. Partitions
// which fail to mount are skipped. The first mounted one is selected.
func Open(store *sector.Store) (*Driver, error) {
	raw, err := store.Read(0)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrNotFound)
	}
	m, err := ParseMBR(raw)
	if err != nil {
		return nil, err
	}
	if !m.HasBootSignature() {
		glog.Warningf("sector 0 has no boot signature, reading the partition table anyway")
	}

	d := &Driver{
		store:   store,
		mbr:     m,
		volumes: make(map[int]*Volume),
		active:  -1,
		cwd:     "/",
	}

	for i, p := range m.Partitions {
		if p.IsEmpty() {
			continue
		}
		if !p.IsFAT() {
			glog.V(1).Infof("skipping partition %d of type %#02x", i, p.Type)
			continue
		}

		v, err := Mount(store, p)
		if err != nil {
			glog.Warningf("partition %d looks like FAT but cannot be mounted: %v", i, err)
			continue
		}
		d.volumes[i] = v
		if d.active < 0 {
			d.active = i
		}
	}

	return d, nil
}

// OpenImage loads the image at path from fs and opens it.
func OpenImage(fs afero.Fs, path string) (*Driver, error) {
	store, err := sector.Load(fs, path)
	if err != nil {
		return nil, err
	}
	return Open(store)
}

// Flush writes the whole image to path on fs.
func (d *Driver) Flush(fs afero.Fs, path string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.store.Flush(fs, path)
}

// Store returns the sector store of the image.
func (d *Driver) Store() *sector.Store {
	return d.store
}

// MBR returns a copy of the parsed master boot record.
func (d *Driver) MBR() MBR {
	return *d.mbr
}

// Partitions returns the indices of all mounted partitions in ascending order.
func (d *Driver) Partitions() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	indices := make([]int, 0, len(d.volumes))
	for i := range d.volumes {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// SelectPartition makes partition index the active one and resets the
// current directory to the root.
func (d *Driver) SelectPartition(index int) error {
	if _, err := d.mbr.Partition(index); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.volumes[index]; !ok {
		return checkpoint.Wrap(fmt.Errorf("partition %d", index), ErrNotFAT)
	}
	d.active = index
	d.cwd = "/"
	glog.V(1).Infof("selected partition %d", index)
	return nil
}

// volume returns the active volume. The caller must hold d.mu.
func (d *Driver) volume() (*Volume, error) {
	v, ok := d.volumes[d.active]
	if !ok {
		return nil, checkpoint.From(ErrNoVolume)
	}
	return v, nil
}

// Volume returns the active volume.
func (d *Driver) Volume() (*Volume, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.volume()
}

// Fs returns the active volume as afero.Fs. Calls through it bypass the
// locking of the Driver.
func (d *Driver) Fs() (*Fs, error) {
	v, err := d.Volume()
	if err != nil {
		return nil, err
	}
	return NewFs(v), nil
}

// Sector returns a copy of the sector at the absolute index.
func (d *Driver) Sector(index uint32) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	raw, err := d.store.Read(index)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrNotFound)
	}
	return raw, nil
}

// Geometry returns the layout of the active volume.
func (d *Driver) Geometry() (Geometry, error) {
	v, err := d.Volume()
	if err != nil {
		return Geometry{}, err
	}
	return v.Geometry(), nil
}

// BPB returns the BIOS parameter block of the active volume.
func (d *Driver) BPB() (BPB, error) {
	v, err := d.Volume()
	if err != nil {
		return BPB{}, err
	}
	return v.BPB(), nil
}

// NonZeroSectors returns the absolute indices of all sectors of the active
// partition which contain at least one non-zero byte.
func (d *Driver) NonZeroSectors() ([]uint32, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, err := d.volume()
	if err != nil {
		return nil, err
	}

	start := v.partition.StartLBA
	end := start + v.geo.TotalSectors
	if n := uint32(d.store.Len()); end > n {
		end = n
	}

	var indices []uint32
	for i := start; i < end; i++ {
		zero, err := d.store.IsZero(i)
		if err != nil {
			return nil, checkpoint.From(err)
		}
		if !zero {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

// Cwd returns the current directory.
func (d *Driver) Cwd() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.cwd
}

// abs resolves p against the current directory. The caller must hold d.mu.
func (d *Driver) abs(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(d.cwd, p)
}

// ChangeDir sets the current directory to p.
func (d *Driver) ChangeDir(p string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.volume()
	if err != nil {
		return err
	}

	target := d.abs(p)
	e, err := v.Resolve(target)
	if err != nil {
		return err
	}
	if !e.IsDir() {
		return checkpoint.Wrap(fmt.Errorf("%q", target), ErrNotDir)
	}
	d.cwd = target
	return nil
}

// List returns every occupied entry of directory p, the current directory
// if p is empty.
func (d *Driver) List(p string) ([]DirEntry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, err := d.volume()
	if err != nil {
		return nil, err
	}

	e, err := v.Resolve(d.abs(p))
	if err != nil {
		return nil, err
	}
	if !e.IsDir() {
		return nil, checkpoint.Wrap(fmt.Errorf("%q", p), ErrNotDir)
	}
	return v.DirectoryEntries(e.FirstCluster())
}

// Mkdir creates the directory p.
func (d *Driver) Mkdir(p string) (DirEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.volume()
	if err != nil {
		return DirEntry{}, err
	}
	return v.Mkdir(d.abs(p))
}

// CreateFile creates the empty file p.
func (d *Driver) CreateFile(p string) (DirEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.volume()
	if err != nil {
		return DirEntry{}, err
	}
	return v.CreateFile(d.abs(p))
}

// ReadFile returns the content of file p.
func (d *Driver) ReadFile(p string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, err := d.volume()
	if err != nil {
		return nil, err
	}
	return v.ReadFile(d.abs(p))
}

// Remove always fails, entries cannot be deleted.
func (d *Driver) Remove(p string) error {
	return checkpoint.Wrap(fmt.Errorf("remove %q", p), ErrUnsupported)
}
