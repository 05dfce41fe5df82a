// bcm is a command-line file compressor built on the BCM codec.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mewkiz/bcm"
	"github.com/mewkiz/pkg/osutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	// decompress selects decompression instead of compression.
	decompress bool
	// force allows overwriting an existing output file.
	force bool
	// blockSize is the block size in MB, or in KB with a trailing "k".
	blockSize string
)

var rootCmd = &cobra.Command{
	Use:   "bcm [options] infile [outfile]",
	Short: "BCM - a BWT-based file compressor",
	Long: `BCM - a BWT-based file compressor.

Output defaults to infile.bcm on compression. On decompression a trailing
.bcm extension is removed, otherwise .out is appended.`,
	Args:          cobra.RangeArgs(1, 2),
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().BoolVarP(&decompress, "decompress", "d", false, "decompress")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "force overwrite of output file")
	rootCmd.Flags().StringVarP(&blockSize, "block-size", "b", "20", "block size in MB, or in KB with a trailing k")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	inPath := args[0]
	outPath := outputName(inPath, decompress)
	if len(args) > 1 {
		outPath = args[1]
	}
	if !force && osutil.Exists(outPath) {
		return errors.Errorf("%s already exists; use -f to force overwrite", outPath)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer in.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer out.Close()

	start := time.Now()
	if decompress {
		err = bcm.Decode(out, in)
	} else {
		var b int
		if b, err = parseBlockSize(blockSize); err != nil {
			return err
		}
		err = bcm.Encode(out, in, b)
	}
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return errors.WithStack(err)
	}

	inInfo, err := os.Stat(inPath)
	if err != nil {
		return errors.WithStack(err)
	}
	outInfo, err := os.Stat(outPath)
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Printf("%s: %d -> %d in %.3fs\n", inPath, inInfo.Size(), outInfo.Size(), time.Since(start).Seconds())
	return nil
}

// outputName derives the default output path. Compression appends .bcm;
// decompression removes a trailing .bcm, or appends .out when there is none.
func outputName(inPath string, decompress bool) string {
	if !decompress {
		return inPath + ".bcm"
	}
	if strings.HasSuffix(inPath, ".bcm") && len(inPath) > len(".bcm") {
		return strings.TrimSuffix(inPath, ".bcm")
	}
	return inPath + ".out"
}

// parseBlockSize converts the -b flag to a byte count: plain numbers are MB,
// a trailing "k" selects KB.
func parseBlockSize(s string) (int, error) {
	shift := 20
	if strings.HasSuffix(s, "k") {
		shift = 10
		s = strings.TrimSuffix(s, "k")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.Errorf("invalid block size %q", blockSize)
	}
	return n << shift, nil
}
