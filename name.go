package fatimg

import (
	"fmt"
	"strings"

	"github.com/aligator/fatimg/checkpoint"
)

var (
	dotName    = [11]byte{'.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
	dotDotName = [11]byte{'.', '.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
)

// specialChars are the non alphanumeric characters allowed in short names.
const specialChars = "!#$%&'()-@^_`{}~"

// ShortName converts a name like "kernel.bin" into its padded, upper case
// 8.3 form "KERNEL  BIN". Long names are not supported, so a name which does
// not fit is rejected with ErrInvalidName instead of being shortened.
func ShortName(name string) ([11]byte, error) {
	var result [11]byte
	for i := range result {
		result[i] = ' '
	}

	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		base, ext = name[:i], name[i+1:]
	}

	switch {
	case base == "":
		return result, checkpoint.Wrap(fmt.Errorf("%q has no base name", name), ErrInvalidName)
	case len(base) > 8 || len(ext) > 3:
		return result, checkpoint.Wrap(fmt.Errorf("%q does not fit into 8.3", name), ErrInvalidName)
	}

	// Only ASCII is checked and upper cased, so the byte lengths stay the same.
	for _, r := range base + ext {
		if !validShortNameRune(r) {
			return result, checkpoint.Wrap(fmt.Errorf("%q contains %q", name, r), ErrInvalidName)
		}
	}

	copy(result[:8], strings.ToUpper(base))
	copy(result[8:], strings.ToUpper(ext))
	return result, nil
}

func validShortNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r > 0x7F:
		return false
	default:
		return strings.ContainsRune(specialChars, r)
	}
}

// displayName turns a padded 8.3 name back into "NAME.EXT".
func displayName(raw [11]byte) string {
	name := strings.TrimRight(string(raw[:8]), " ")
	ext := strings.TrimRight(string(raw[8:11]), " ")

	if ext != "" {
		name += "."
	}

	return name + ext
}
