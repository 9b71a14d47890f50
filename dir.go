package fatimg

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aligator/fatimg/checkpoint"
	"github.com/aligator/fatimg/record"
	"github.com/golang/glog"
)

// DirEntry is a decoded directory entry together with its position.
type DirEntry struct {
	Header EntryHeader
	Slot   Slot

	root bool
}

// rootEntry stands in for the root directory, which has no entry of its own.
func rootEntry() DirEntry {
	return DirEntry{
		Header: EntryHeader{Attribute: AttrDirectory},
		root:   true,
	}
}

// Name returns the name as "NAME.EXT", "/" for the root directory.
func (e DirEntry) Name() string {
	if e.root {
		return "/"
	}
	return displayName(e.Header.Name)
}

// FirstCluster returns the start of the entry's cluster chain. It is
// RootCluster for the root directory.
func (e DirEntry) FirstCluster() Cluster {
	return Cluster(e.Header.FirstClusterLO)
}

func (e DirEntry) IsRoot() bool {
	return e.root
}

func (e DirEntry) IsDir() bool {
	return e.Header.Attribute&AttrDirectory == AttrDirectory
}

// IsDot reports the "." and ".." entries of a subdirectory.
func (e DirEntry) IsDot() bool {
	return e.Header.Name == dotName || e.Header.Name == dotDotName
}

// IsMeta reports volume labels and long name parts, which are not files.
func (e DirEntry) IsMeta() bool {
	return e.Header.Attribute&AttrVolumeID == AttrVolumeID
}

func (e DirEntry) String() string {
	return fmt.Sprintf("%-12s attr=%#02x cluster=%d size=%d at %v", e.Name(), e.Header.Attribute, e.FirstCluster(), e.Header.FileSize, e.Slot)
}

// encodeEntry builds a 32 byte directory entry. Timestamps are always the
// placeholder time.
func encodeEntry(name [11]byte, attributes uint8, first Cluster, size uint32) ([]byte, error) {
	date := uint64(PackDate(placeholderTime))
	clock := uint64(PackTime(placeholderTime))

	return record.Encode(EntrySchema, record.Values{
		"name":             record.Text(string(name[:])),
		"attributes":       record.Uint(uint64(attributes)),
		"ntReserved":       record.Uint(0),
		"createTimeTenths": record.Uint(0),
		"createTime":       record.Uint(clock),
		"createDate":       record.Uint(date),
		"lastAccessDate":   record.Uint(date),
		"firstClusterHi":   record.Uint(0),
		"writeTime":        record.Uint(clock),
		"writeDate":        record.Uint(date),
		"firstClusterLo":   record.Uint(uint64(first)),
		"fileSize":         record.Uint(uint64(size)),
	})
}

func decodeEntry(raw []byte, slot Slot) (DirEntry, error) {
	e := DirEntry{Slot: slot}
	if err := unpack(raw, &e.Header); err != nil {
		return DirEntry{}, err
	}
	return e, nil
}

// dirSlots returns the position of every slot of directory dir in physical
// order: the fixed root region for RootCluster, the cluster chain otherwise.
func (v *Volume) dirSlots(dir Cluster) ([]Slot, error) {
	perSector := v.geo.BytesPerSector / entrySize

	if dir == RootCluster {
		slots := make([]Slot, 0, v.geo.RootEntryCount)
		for i := uint32(0); i < v.geo.RootEntryCount; i++ {
			slots = append(slots, Slot{
				Sector: v.geo.FirstRootDirSector + i/perSector,
				Offset: int(i%perSector) * entrySize,
			})
		}
		return slots, nil
	}

	chain, err := v.Chain(dir)
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for _, c := range chain {
		first, err := v.FirstSectorOfCluster(c)
		if err != nil {
			return nil, err
		}
		for s := uint32(0); s < v.geo.SectorsPerCluster; s++ {
			for i := uint32(0); i < perSector; i++ {
				slots = append(slots, Slot{Sector: first + s, Offset: int(i) * entrySize})
			}
		}
	}
	return slots, nil
}

// DirectoryEntries returns every occupied entry of directory dir, including
// "." and "..", volume labels and long name parts. Use RootCluster for the
// root directory.
func (v *Volume) DirectoryEntries(dir Cluster) ([]DirEntry, error) {
	slots, err := v.dirSlots(dir)
	if err != nil {
		return nil, err
	}

	var (
		entries []DirEntry
		buf     []byte
		cur     uint32
	)
	for i, s := range slots {
		if i == 0 || s.Sector != cur {
			if buf, err = v.store.Read(s.Sector); err != nil {
				return nil, checkpoint.From(err)
			}
			cur = s.Sector
		}

		raw := buf[s.Offset : s.Offset+entrySize]
		if slotIsFree(raw) {
			continue
		}
		e, err := decodeEntry(raw, s)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Lookup finds the entry called name in directory dir. Names are compared in
// their 8.3 form, so the lookup is case-insensitive.
func (v *Volume) Lookup(dir Cluster, name string) (DirEntry, error) {
	var want [11]byte
	switch name {
	case ".":
		want = dotName
	case "..":
		want = dotDotName
	default:
		var err error
		if want, err = ShortName(name); err != nil {
			return DirEntry{}, err
		}
	}

	entries, err := v.DirectoryEntries(dir)
	if err != nil {
		return DirEntry{}, err
	}
	for _, e := range entries {
		if !e.IsMeta() && e.Header.Name == want {
			return e, nil
		}
	}
	return DirEntry{}, checkpoint.Wrap(fmt.Errorf("%q in directory at cluster %d", name, dir), ErrNotFound)
}

func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// Resolve walks p component by component from the root directory.
// "" and "/" resolve to the root entry.
func (v *Volume) Resolve(p string) (DirEntry, error) {
	cur := rootEntry()
	for _, part := range splitPath(p) {
		if !cur.IsDir() {
			return DirEntry{}, checkpoint.Wrap(fmt.Errorf("%q in %q", cur.Name(), p), ErrNotDir)
		}
		next, err := v.Lookup(cur.FirstCluster(), part)
		if err != nil {
			return DirEntry{}, err
		}
		// ".." of a top-level directory points to the root by cluster 0.
		if next.IsDir() && next.FirstCluster() == RootCluster {
			next = rootEntry()
		}
		cur = next
	}
	return cur, nil
}

// resolveParent resolves the directory part of p and returns it together
// with the last path element.
func (v *Volume) resolveParent(p string) (DirEntry, string, error) {
	parts := splitPath(p)
	if len(parts) == 0 {
		return DirEntry{}, "", checkpoint.Wrap(fmt.Errorf("%q names the root directory", p), ErrInvalidName)
	}

	parent, err := v.Resolve(path.Join(parts[:len(parts)-1]...))
	if err != nil {
		return DirEntry{}, "", err
	}
	if !parent.IsDir() {
		return DirEntry{}, "", checkpoint.Wrap(fmt.Errorf("%q", p), ErrNotDir)
	}
	return parent, parts[len(parts)-1], nil
}

// CreateFileOrDirectory adds an entry called name with the given attributes
// to directory parent, which is RootCluster for the root directory. The new
// entry gets one cluster; directories are initialized with "." and "..".
//
// All writes happen in one transaction: if any step fails, for example
// because no cluster or slot is left, the image is left unchanged.
func (v *Volume) CreateFileOrDirectory(parent Cluster, name string, attributes uint8) (DirEntry, error) {
	short, err := ShortName(name)
	if err != nil {
		return DirEntry{}, err
	}

	if _, err := v.Lookup(parent, name); err == nil {
		return DirEntry{}, checkpoint.Wrap(fmt.Errorf("%q", name), ErrExist)
	} else if !errors.Is(err, ErrNotFound) {
		return DirEntry{}, err
	}

	tx, err := v.store.Begin()
	if err != nil {
		return DirEntry{}, checkpoint.From(err)
	}
	defer tx.Rollback()

	entry, err := v.create(parent, short, attributes)
	if err != nil {
		if tx.Touched() > 0 {
			glog.Warningf("creating %q failed, rolling back %d sectors: %v", name, tx.Touched(), err)
		}
		return DirEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return DirEntry{}, checkpoint.From(err)
	}
	glog.V(2).Infof("created %v", entry)
	return entry, nil
}

func (v *Volume) create(parent Cluster, name [11]byte, attributes uint8) (DirEntry, error) {
	c, err := v.ScanForFreeCluster()
	if err != nil {
		return DirEntry{}, err
	}

	raw, err := encodeEntry(name, attributes, c, 0)
	if err != nil {
		return DirEntry{}, err
	}

	if err := v.claimCluster(c); err != nil {
		return DirEntry{}, err
	}

	var slot Slot
	if parent == RootCluster {
		slot, err = v.ScanForFreeSlotInRoot()
	} else {
		slot, err = v.ScanForFreeSlotInCluster(parent)
	}
	if err != nil {
		return DirEntry{}, err
	}

	if err := v.writeSlot(slot, raw); err != nil {
		return DirEntry{}, err
	}

	if attributes&AttrDirectory != 0 {
		if err := v.initDirectory(c, parent); err != nil {
			return DirEntry{}, err
		}
	}

	return decodeEntry(raw, slot)
}

// initDirectory writes "." pointing to c and ".." pointing to parent into the
// first sector of c.
func (v *Volume) initDirectory(c, parent Cluster) error {
	first, err := v.FirstSectorOfCluster(c)
	if err != nil {
		return err
	}

	dot, err := encodeEntry(dotName, AttrDirectory, c, 0)
	if err != nil {
		return err
	}
	dotDot, err := encodeEntry(dotDotName, AttrDirectory, parent, 0)
	if err != nil {
		return err
	}

	if err := v.writeSlot(Slot{Sector: first, Offset: 0}, dot); err != nil {
		return err
	}
	return v.writeSlot(Slot{Sector: first, Offset: entrySize}, dotDot)
}

// Mkdir creates the directory p. Its parent must exist.
func (v *Volume) Mkdir(p string) (DirEntry, error) {
	parent, name, err := v.resolveParent(p)
	if err != nil {
		return DirEntry{}, err
	}
	return v.CreateFileOrDirectory(parent.FirstCluster(), name, AttrDirectory)
}

// CreateFile creates the empty file p. Its parent must exist.
func (v *Volume) CreateFile(p string) (DirEntry, error) {
	parent, name, err := v.resolveParent(p)
	if err != nil {
		return DirEntry{}, err
	}
	return v.CreateFileOrDirectory(parent.FirstCluster(), name, AttrArchive)
}

// ReadFile returns the whole content of file p.
func (v *Volume) ReadFile(p string) ([]byte, error) {
	e, err := v.Resolve(p)
	if err != nil {
		return nil, err
	}
	if e.IsDir() {
		return nil, checkpoint.Wrap(fmt.Errorf("%q", p), ErrIsDir)
	}

	size := int64(e.Header.FileSize)
	if size == 0 {
		return []byte{}, nil
	}
	return v.readFileAt(e.FirstCluster(), size, 0, size)
}

// readFileAt reads up to readSize bytes at offset of the file starting at
// cluster. If the file ends before readSize bytes are read, the data read so
// far is returned together with io.EOF.
func (v *Volume) readFileAt(cluster Cluster, fileSize int64, offset int64, readSize int64) ([]byte, error) {
	if offset < 0 || readSize < 0 {
		return nil, checkpoint.Wrap(fmt.Errorf("offset %d, size %d", offset, readSize), ErrInvariant)
	}
	if offset >= fileSize {
		return nil, io.EOF
	}

	n := readSize
	if offset+n > fileSize {
		n = fileSize - offset
	}

	chain, err := v.Chain(cluster)
	if err != nil {
		return nil, err
	}

	clusterSize := int64(v.geo.SectorsPerCluster * v.geo.BytesPerSector)
	bps := int64(v.geo.BytesPerSector)

	data := make([]byte, 0, n)
	pos := offset
	for int64(len(data)) < n {
		idx := pos / clusterSize
		if idx >= int64(len(chain)) {
			return data, checkpoint.Wrap(fmt.Errorf("file of %d bytes has only %d clusters", fileSize, len(chain)), ErrInvariant)
		}
		first, err := v.FirstSectorOfCluster(chain[idx])
		if err != nil {
			return data, err
		}

		inCluster := pos % clusterSize
		off := inCluster % bps
		chunk := bps - off
		if rest := n - int64(len(data)); chunk > rest {
			chunk = rest
		}

		part, err := v.store.ReadAt(first+uint32(inCluster/bps), int(off), int(chunk))
		if err != nil {
			return data, checkpoint.From(err)
		}
		data = append(data, part...)
		pos += chunk
	}

	if n < readSize {
		return data, io.EOF
	}
	return data, nil
}

// readDir returns the entries of directory dir which represent files or
// directories, without "." and "..".
func (v *Volume) readDir(dir Cluster) ([]DirEntry, error) {
	entries, err := v.DirectoryEntries(dir)
	if err != nil {
		return nil, err
	}

	visible := entries[:0]
	for _, e := range entries {
		if e.IsDot() || e.IsMeta() {
			continue
		}
		visible = append(visible, e)
	}
	return visible, nil
}
