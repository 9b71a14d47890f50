package fatimg

import (
	"errors"
	"fmt"
	"os"
)

// These errors may occur while working with an image. Use errors.Is to check
// for them, the returned errors are decorated by checkpoint.
var (
	// ErrNotFound is returned for names, partitions and sectors which do not exist.
	ErrNotFound = fmt.Errorf("fatimg: not found: %w", os.ErrNotExist)
	// ErrNoPartition is returned for partition indices outside of the MBR table.
	ErrNoPartition = fmt.Errorf("fatimg: no such partition: %w", ErrNotFound)
	// ErrNotFAT is returned for partitions which do not hold a usable FAT12/16 volume.
	ErrNotFAT = fmt.Errorf("fatimg: partition is not FAT formatted: %w", ErrNotFound)

	// ErrVolumeFull is returned if no free cluster or directory slot is left.
	ErrVolumeFull = errors.New("fatimg: volume full")
	// ErrRootFull is returned if the fixed-size root directory has no free slot.
	ErrRootFull = fmt.Errorf("fatimg: root directory full: %w", ErrVolumeFull)

	// ErrInvariant is returned if the on-disk structures contradict themselves,
	// e.g. a cluster chain which loops or links to a free cluster.
	ErrInvariant = errors.New("fatimg: structural invariant violated")
	// ErrNoVolume is returned by the Driver if no FAT volume is selected.
	ErrNoVolume = fmt.Errorf("fatimg: no volume mounted: %w", ErrInvariant)
	// ErrClusterRange is returned for cluster numbers outside of the FAT.
	ErrClusterRange = errors.New("fatimg: cluster out of range")

	ErrUnsupported = errors.New("fatimg: operation not supported")
	ErrInvalidName = errors.New("fatimg: invalid 8.3 name")
	ErrExist       = fmt.Errorf("fatimg: entry already exists: %w", os.ErrExist)
	ErrNotDir      = errors.New("fatimg: not a directory")
	ErrIsDir       = errors.New("fatimg: is a directory")
)
