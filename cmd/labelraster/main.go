package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/janelia-flyem/seedseg/dvid"
	"github.com/janelia-flyem/seedseg/labels"
	"github.com/janelia-flyem/seedseg/volio"
)

var (
	encodeDims  = flag.String("encode", "", "")
	compression = flag.String("compress", "zstd", "")

	// Display usage if true.
	showHelp = flag.Bool("help", false, "")
)

const helpMessage = `
labelraster converts between packed label arrays and seedseg label raster files.  If
-encode=NX,NY,NZ is used, the program accepts a packed array of little-endian uint32 in
Z, Y, and then X order, where the dimensions of the input array are NX x NY x NZ.  The
output is a label raster as written by seedseg.  If no -encode flag is given, the program
expects stdin to be a label raster and writes the packed uint32 array to stdout.

Usage: labelraster [options]

	-encode         =string   Dimensions ("NX,NY,NZ") of little-endian packed array of uint32.
	-compress       =string   Compression of encoded raster: "none", "snappy", or "zstd".
	-h, -help       (flag)    Show help message
`

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = func() {
		fmt.Printf(helpMessage)
	}
	flag.Parse()

	if *showHelp || flag.NArg() != 0 {
		flag.Usage()
		os.Exit(0)
	}

	var err error
	if len(*encodeDims) != 0 {
		err = encode(os.Stdin, os.Stdout, *encodeDims, *compression)
	} else {
		err = decode(os.Stdin, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func encode(r io.Reader, w io.Writer, dimStr, compressStr string) error {
	var dims dvid.Dims
	if n, err := fmt.Sscanf(dimStr, "%d,%d,%d", &dims[0], &dims[1], &dims[2]); n != 3 || err != nil {
		return fmt.Errorf("could not interpret raster size, should be -encode=nx,ny,nz: %v", err)
	}
	if err := dims.Check(); err != nil {
		return err
	}
	compress, err := dvid.CompressionFromString(compressStr)
	if err != nil {
		return err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading stdin: %v", err)
	}
	raster, err := labels.RasterFromBytes(dims, b)
	if err != nil {
		return fmt.Errorf("bad input: %v", err)
	}
	return volio.WriteRaster(w, raster, compress)
}

func decode(r io.Reader, w io.Writer) error {
	raster, err := volio.ReadRaster(r)
	if err != nil {
		return fmt.Errorf("error trying to deserialize supplied bytes: %v", err)
	}
	if _, err := w.Write(raster.Bytes()); err != nil {
		return fmt.Errorf("error trying to write bytes to stdout: %v", err)
	}
	return nil
}
