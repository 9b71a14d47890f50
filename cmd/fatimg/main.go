// fatimg inspects and modifies FAT12/16 volumes in partitioned disk images.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"math"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/aligator/fatimg"
	"github.com/aligator/fatimg/internal/imageflag"
	"github.com/aligator/fatimg/sector"
	"github.com/golang/glog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var osFs = afero.NewOsFs()

// parseSize reads a positive byte count with an optional k or m suffix.
func parseSize(s string) (int64, error) {
	ss := strings.TrimSpace(strings.ToLower(s))
	mult := int64(1)
	switch {
	case strings.HasSuffix(ss, "k"):
		mult = 1024
		ss = strings.TrimSuffix(ss, "k")
	case strings.HasSuffix(ss, "m"):
		mult = 1024 * 1024
		ss = strings.TrimSuffix(ss, "m")
	}
	v, err := strconv.ParseInt(ss, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if v <= 0 || v > math.MaxInt64/mult {
		return 0, fmt.Errorf("invalid size %q: out of range", s)
	}
	return v * mult, nil
}

func openDriver() (*fatimg.Driver, error) {
	d, err := fatimg.OpenImage(osFs, imageflag.Image())
	if err != nil {
		return nil, err
	}
	if p := imageflag.Partition(); p >= 0 {
		if err := d.SelectPartition(p); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// withDriver runs fn on the opened image and writes the image back if write
// is set and fn succeeded.
func withDriver(write bool, fn func(d *fatimg.Driver) error) error {
	d, err := openDriver()
	if err != nil {
		return err
	}
	if err := fn(d); err != nil {
		return err
	}
	if write {
		return d.Flush(osFs, imageflag.Image())
	}
	return nil
}

func printEntries(entries []fatimg.DirEntry) {
	for _, e := range entries {
		kind := "-"
		if e.IsDir() {
			kind = "d"
		}
		fmt.Printf("%s %-12s %8d  cluster %d\n", kind, e.Name(), e.Header.FileSize, e.FirstCluster())
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fatimg",
		Short:         "Inspect and modify FAT12/16 volumes in disk images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// glog refuses to log before the go flag set is parsed.
			return flag.CommandLine.Parse(nil)
		},
	}
	imageflag.RegisterPflags(root.PersistentFlags())
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	var (
		size  string
		opts  fatimg.FormatOptions
		force bool
	)
	formatCmd := &cobra.Command{
		Use:   "format",
		Short: "Create a new image with one empty FAT16 partition",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			bytes, err := parseSize(size)
			if err != nil {
				return err
			}
			if _, err := osFs.Stat(imageflag.Image()); err == nil && !force {
				return fmt.Errorf("%s exists, use --force to overwrite it", imageflag.Image())
			}

			store := sector.New(int(bytes / sector.Size))
			if err := fatimg.Format(store, opts); err != nil {
				return err
			}
			return store.Flush(osFs, imageflag.Image())
		},
	}
	formatCmd.Flags().StringVar(&size, "size", "16m", "image size (e.g. 512k, 16m)")
	formatCmd.Flags().StringVar(&opts.Label, "label", "", "volume label (<=11 ASCII)")
	formatCmd.Flags().StringVar(&opts.OEMName, "oem", "", "OEM string (<=8 ASCII)")
	formatCmd.Flags().Uint8Var(&opts.SectorsPerCluster, "cluster-sectors", 0, "sectors per cluster, a power of two (0 picks the smallest one within the FAT16 cluster limit)")
	formatCmd.Flags().Uint16Var(&opts.RootEntryCount, "root-entries", 0, "number of root directory entries")
	formatCmd.Flags().Uint32Var(&opts.PartitionStart, "start", 0, "first sector of the partition")
	formatCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing image")
	root.AddCommand(formatCmd)

	root.AddCommand(&cobra.Command{
		Use:   "mbr",
		Short: "Print the partition table",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withDriver(false, func(d *fatimg.Driver) error {
				m := d.MBR()
				for i, p := range m.Partitions {
					fmt.Printf("%d: %v\n", i, p)
				}
				fmt.Printf("signature: %#04x (valid: %v)\n", m.Signature, m.HasBootSignature())
				fmt.Printf("mounted: %v\n", d.Partitions())
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "bpb",
		Short: "Print the BIOS parameter block of the selected partition",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withDriver(false, func(d *fatimg.Driver) error {
				b, err := d.BPB()
				if err != nil {
					return err
				}
				fmt.Println(b.String())
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "geometry",
		Short: "Print the layout of the selected volume",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withDriver(false, func(d *fatimg.Driver) error {
				g, err := d.Geometry()
				if err != nil {
					return err
				}
				fmt.Println(g)
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "sector N",
		Short: "Dump one sector of the image",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			index, err := strconv.ParseUint(args[0], 0, 32)
			if err != nil {
				return err
			}
			return withDriver(false, func(d *fatimg.Driver) error {
				raw, err := d.Sector(uint32(index))
				if err != nil {
					return err
				}
				fmt.Print(hex.Dump(raw))
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "nonzero",
		Short: "List the sectors of the selected partition holding data",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withDriver(false, func(d *fatimg.Driver) error {
				indices, err := d.NonZeroSectors()
				if err != nil {
					return err
				}
				for _, i := range indices {
					fmt.Println(i)
				}
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "ls [DIR]",
		Short: "List a directory including . and ..",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := "/"
			if len(args) > 0 {
				dir = args[0]
			}
			return withDriver(false, func(d *fatimg.Driver) error {
				entries, err := d.List(dir)
				if err != nil {
					return err
				}
				printEntries(entries)
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "tree",
		Short: "Print every file and directory of the selected volume",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withDriver(false, func(d *fatimg.Driver) error {
				fs, err := d.Fs()
				if err != nil {
					return err
				}
				return afero.Walk(fs, "/", func(p string, info os.FileInfo, err error) error {
					if err != nil {
						return err
					}
					depth := strings.Count(p, "/")
					if p == "/" {
						depth = 0
					}
					name := path.Base(p)
					if info.IsDir() {
						name += "/"
					}
					fmt.Printf("%s%s\n", strings.Repeat("  ", depth), name)
					return nil
				})
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "mkdir PATH",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withDriver(true, func(d *fatimg.Driver) error {
				_, err := d.Mkdir(args[0])
				return err
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "touch PATH",
		Short: "Create an empty file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withDriver(true, func(d *fatimg.Driver) error {
				_, err := d.CreateFile(args[0])
				return err
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "cat PATH",
		Short: "Print the content of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withDriver(false, func(d *fatimg.Driver) error {
				data, err := d.ReadFile(args[0])
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "rm PATH",
		Short: "Remove a file (not supported)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withDriver(true, func(d *fatimg.Driver) error {
				return d.Remove(args[0])
			})
		},
	})

	return root
}

func main() {
	err := newRootCmd().Execute()
	glog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
