package fatimg

import (
	"os"
	"time"
)

// FileInfo returns the entry as os.FileInfo.
func (e DirEntry) FileInfo() os.FileInfo {
	return entryFileInfo{e}
}

type entryFileInfo struct {
	entry DirEntry
}

func (e entryFileInfo) Name() string {
	return e.entry.Name()
}

func (e entryFileInfo) Size() int64 {
	return int64(e.entry.Header.FileSize)
}

func (e entryFileInfo) Mode() os.FileMode {
	mode := os.FileMode(0o666)
	if e.entry.Header.Attribute&AttrReadOnly == AttrReadOnly {
		mode = 0o444
	}
	if e.IsDir() {
		return mode | 0o111 | os.ModeDir
	}
	return mode
}

func (e entryFileInfo) ModTime() time.Time {
	if e.entry.root {
		return time.Time{}
	}

	writeDate := ParseDate(e.entry.Header.WriteDate)
	writeTime := ParseTime(e.entry.Header.WriteTime)

	// An invalid date is returned as time.Time{}. A zero writeTime is valid.
	if writeDate.IsZero() {
		return time.Time{}
	}

	return time.Date(writeDate.Year(), writeDate.Month(), writeDate.Day(), writeTime.Hour(), writeTime.Minute(), writeTime.Second(), 0, time.UTC)
}

func (e entryFileInfo) IsDir() bool {
	return e.entry.IsDir()
}

// Sys returns the DirEntry.
func (e entryFileInfo) Sys() interface{} {
	return e.entry
}
