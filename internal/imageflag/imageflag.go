// Package imageflag registers the flags selecting the disk image and the
// partition to work on. Defaults are taken from the environment.
package imageflag

import (
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

var (
	image = func() string {
		def := os.Getenv("FATIMG_IMAGE")
		if def == "" {
			def = "disk.img"
		}
		return def
	}()

	partition = func() int {
		def, err := strconv.Atoi(os.Getenv("FATIMG_PARTITION"))
		if err != nil || def < 0 {
			return -1
		}
		return def
	}()
)

func RegisterPflags(fs *pflag.FlagSet) {
	fs.StringVarP(&image,
		"image",
		"f",
		image,
		`path of the disk image (default from $FATIMG_IMAGE)`)

	fs.IntVarP(&partition,
		"partition",
		"p",
		partition,
		`MBR partition index 0-3, -1 selects the first FAT partition (default from $FATIMG_PARTITION)`)
}

func SetImage(i string) {
	image = i
}

func SetPartition(p int) {
	partition = p
}

func Image() string {
	return image
}

// Partition returns the selected partition index, -1 if none was given.
func Partition() int {
	return partition
}
