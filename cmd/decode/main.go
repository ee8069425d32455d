// decode - one-shot still image decoding
//
// Loads an image from a file or URL, containment-fits it onto the decode
// canvas, and prints the decoded text.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/pixelgrove/qrscan/internal/config"
	"github.com/pixelgrove/qrscan/internal/log"
	"github.com/pixelgrove/qrscan/pkg/capture"
	"github.com/pixelgrove/qrscan/pkg/decode"
	"github.com/pixelgrove/qrscan/pkg/scanner"
)

func main() {
	all := flag.Bool("all", false, "report every code in the image")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: decode [-all] <image path or URL>")
		os.Exit(2)
	}
	target := flag.Arg(0)

	log.Init(config.LogLevel())

	cfg := scanner.DefaultConfig()
	cfg.TryHarder = true
	cfg.DecodeAll = *all

	dec := decode.NewZXing(decode.StillConfig())
	defer dec.Close()

	if *all {
		decodeAll(dec, target)
		return
	}

	sc := scanner.New(capture.NewStill(nil), dec, cfg)
	res, err := sc.DecodeFile(target)
	if errors.Is(err, decode.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "no code found")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s\t%s\n", res.Format, res.Text)
}

func decodeAll(dec *decode.ZXing, target string) {
	still, err := capture.LoadStill(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		os.Exit(1)
	}
	img, err := still.Read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		os.Exit(1)
	}

	results, err := dec.DecodeAll(img)
	if errors.Is(err, decode.ErrNotFound) || len(results) == 0 {
		fmt.Fprintln(os.Stderr, "no code found")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode failed: %v\n", err)
		os.Exit(1)
	}

	for _, res := range results {
		fmt.Printf("%s\t%s\n", res.Format, res.Text)
	}
}
