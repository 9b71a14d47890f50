// Package checkpoint decorates errors with the file and line of the place
// where they were passed upwards, which results in something similar to a
// stacktrace when the error is finally printed.
//
// Both the decorating error and the decorated cause stay reachable for
// errors.Is and errors.As:
//
//	var ErrVolumeFull = errors.New("volume full")
//
//	func allocate() error {
//		_, err := scan()
//		return checkpoint.Wrap(err, ErrVolumeFull)
//	}
//
//	if errors.Is(allocate(), ErrVolumeFull) { ... }
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// site is the location a checkpoint was created at.
type site struct {
	ok   bool
	file string
	line int
}

func (s site) String() string {
	if !s.ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", s.file, s.line)
}

// caller returns the site of the function calling From or Wrap.
func caller() site {
	_, file, line, ok := runtime.Caller(2)
	return site{ok: ok, file: filepath.Base(file), line: line}
}

// passThrough reports errors that must never be wrapped because callers
// compare them with == (https://github.com/golang/go/issues/39155).
func passThrough(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

// From records the caller location on err.
// It returns nil if err is nil.
func From(err error) error {
	if err == nil || passThrough(err) {
		return err
	}

	return &checkpoint{
		prev: err,
		at:   caller(),
	}
}

// Wrap records the caller location on prev and describes it further by err.
// It returns nil if prev is nil, so it can be used directly on the result of
// a call:
//
//	return checkpoint.Wrap(store.Write(idx, off, raw), ErrWriteEntry)
//
// err may be nil, in which case Wrap behaves like From.
func Wrap(prev, err error) error {
	if prev == nil || passThrough(prev) {
		return prev
	}

	return &checkpoint{
		err:  err,
		prev: prev,
		at:   caller(),
	}
}

type checkpoint struct {
	err  error
	prev error
	at   site
}

func (c *checkpoint) Error() string {
	var b strings.Builder
	b.WriteString(c.at.String())
	if c.err != nil {
		b.WriteString(": ")
		b.WriteString(c.err.Error())
	}

	// Nested checkpoints go on their own line, plain causes are indented.
	if _, ok := c.prev.(*checkpoint); ok {
		b.WriteString("\n")
		b.WriteString(c.prev.Error())
	} else {
		b.WriteString("\n\t")
		b.WriteString(strings.ReplaceAll(c.prev.Error(), "\n", "\n\t"))
	}
	return b.String()
}

func (c *checkpoint) Unwrap() error {
	return c.prev
}

func (c *checkpoint) Is(target error) bool {
	return c.err != nil && errors.Is(c.err, target)
}

func (c *checkpoint) As(target interface{}) bool {
	return c.err != nil && errors.As(c.err, target)
}
