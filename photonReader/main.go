package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	scintsim "github.com/next-exp/scintsim_go/pkg"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
)

var logger zerolog.Logger

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006/01/02 15:04:05"}).
		With().Timestamp().Logger()
}

func main() {
	verbose := flag.Bool("v", false, "Print every event")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: photonReader [-v] file.bin [file_t1.bin ...]")
		os.Exit(2)
	}

	index := NewStreamIndex()
	status := 0
	for _, filename := range flag.Args() {
		fileIndex, err := readStream(filename, *verbose)
		if err != nil {
			logger.Error().Str("file", filename).Err(err).Msg("error reading photon stream")
			status = 1
		}
		if fileIndex != nil {
			logger.Info().Str("file", filename).Msg(fileIndex.String())
			index.Merge(fileIndex)
		}
	}
	if flag.NArg() > 1 {
		logger.Info().Msg("total: " + index.String())
	}
	if dup := index.Duplicates(); len(dup) > 0 {
		logger.Warn().Interface("events", dup).Msg("duplicated event indices")
	}
	os.Exit(status)
}

// readStream reads every block of a photon stream file. On a truncated file
// it returns the index of the complete blocks together with the error.
func readStream(filename string, verbose bool) (*StreamIndex, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &scintsim.ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	index := NewStreamIndex()
	reader := scintsim.NewPhotonStreamReader(bufio.NewReader(file))
	for {
		block, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return index, nil
		}
		if err != nil {
			return index, err
		}
		if !index.Add(block.EventIndex, len(block.Photons)) {
			logger.Warn().Int32("event", block.EventIndex).Msg("event index repeated")
		}
		if verbose {
			printBlock(block)
		}
	}
}

func printBlock(block scintsim.PhotonBlock) {
	event := logger.Info().Int32("event", block.EventIndex).Int("photons", len(block.Photons))
	if len(block.Photons) > 0 {
		times := make([]float64, len(block.Photons))
		wavelengths := make([]float64, len(block.Photons))
		for i, p := range block.Photons {
			times[i] = p.Time
			wavelengths[i] = p.Wavelength
		}
		n := float64(len(block.Photons))
		event = event.
			Float64("t_min_ns", floats.Min(times)).
			Float64("t_max_ns", floats.Max(times)).
			Float64("mean_wavelength_nm", floats.Sum(wavelengths)/n)
	}
	event.Msg("block")
}
