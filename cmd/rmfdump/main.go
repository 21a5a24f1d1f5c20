// Command rmfdump loads an RMF container and prints its structural trace,
// useful for inspecting malformed or unknown files. The document body is
// captured without interpretation.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-gum/rmf"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "optional TOML config file")
	permissive := flag.Bool("permissive", false, "report header mismatches instead of failing")
	format := flag.String("format", "", `trace output format, "plain" or "log"`)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: rmfdump [flags] <file.rmf>")
		os.Exit(2)
	}

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rmfdump: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// flags win over the config file
	if *permissive {
		cfg.Permissive = true
	}
	if *format != "" {
		cfg.Format = *format
	}

	if err := run(flag.Arg(0), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "rmfdump: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, cfg config) error {
	loader, err := rmf.NewLoaderFromFile(path)
	if err != nil {
		return err
	}

	var sink rmf.Sink
	switch cfg.Format {
	case "log":
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)
		sink = rmf.ZerologSink(logger)
	default:
		sink = rmf.WriterSink(os.Stdout)
	}

	loader = loader.WithSink(sink)
	if cfg.Permissive {
		loader = loader.Permissive()
	}

	if err := loader.Load(rmf.RawRoot); err != nil {
		return err
	}

	raw := loader.Root().(rmf.RawRecord)
	fmt.Printf("%s: version %g, %d byte payload at offset %d\n",
		loader.Label(), loader.Version(), len(raw.Bytes), raw.Offset)

	return nil
}
