// Command vtktool converts VTK track logs to CSV, SQLite, HTML charts or a
// PNG track plot.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/velocitek/vtk-protocol/internal/chart"
	"github.com/velocitek/vtk-protocol/internal/config"
	"github.com/velocitek/vtk-protocol/internal/db"
	"github.com/velocitek/vtk-protocol/internal/export"
	"github.com/velocitek/vtk-protocol/internal/fsutil"
	"github.com/velocitek/vtk-protocol/internal/monitoring"
	"github.com/velocitek/vtk-protocol/internal/timeutil"
	"github.com/velocitek/vtk-protocol/internal/version"
	"github.com/velocitek/vtk-protocol/internal/vtk"
)

var clock timeutil.Clock = timeutil.RealClock{}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options is the parsed command line.
type options struct {
	input      string
	output     string
	debug      bool
	debugSize  bool
	verbose    bool
	configPath string
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("vtktool", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }

	var o options
	fs.BoolVar(&o.debug, "debug", false, "Show decoded data")
	fs.BoolVar(&o.debugSize, "debug-size", false, "Show the average size per message")
	fs.BoolVar(&o.verbose, "verbose", false, "Log per-frame decoding details")
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON tool configuration")
	showVersion := fs.Bool("version", false, "Print version and exit")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, "vtktool", version.String())
		return 0
	}

	switch len(positional) {
	case 1:
		o.input = positional[0]
	case 2:
		o.input, o.output = positional[0], positional[1]
	default:
		fmt.Fprintln(stderr, "expected an input file and an optional output file")
		printUsage(fs, stderr)
		return 2
	}

	logger := log.New(stderr, "", 0)
	monitoring.SetLogger(logger.Printf)
	monitoring.SetVerbose(o.verbose)

	cfg := config.EmptyToolConfig()
	if o.configPath != "" {
		cfg, err = config.LoadToolConfig(o.configPath)
		if err != nil {
			fmt.Fprintln(stderr, "failed to load config:", err)
			return 1
		}
	}

	return convert(fsutil.OSFileSystem{}, o, cfg, stdout, stderr)
}

// parseInterspersed accepts flags before, between and after positional
// arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func convert(fsys fsutil.FileSystem, o options, cfg *config.ToolConfig, stdout, stderr io.Writer) int {
	if !strings.HasSuffix(strings.ToLower(o.input), cfg.GetInputExtension()) {
		fmt.Fprintln(stderr, "No intelligible input provided")
		return 1
	}

	start := clock.Now()
	res, err := vtk.ConvertFile(fsys, o.input)
	if err != nil {
		fmt.Fprintln(stderr, "conversion failed:", err)
		return 1
	}
	monitoring.Debugf("decoded %d frames (%d points, %d skipped) in %v",
		res.Frames, len(res.Points), res.Skipped, clock.Since(start))

	var inputSize int64
	info, err := fsys.Stat(o.input)
	if err != nil {
		monitoring.Logf("failed to stat %s: %v", o.input, err)
	} else {
		inputSize = info.Size()
	}

	if o.debugSize && info != nil {
		if avg, ok := res.AvgBytesPerMessage(inputSize); ok {
			fmt.Fprintf(stdout, "Read %d messages from %d bytes. Avg %.1f bytes/msg.\n", len(res.Points), inputSize, avg)
		}
	}

	csvOpts, err := export.CSVOptionsFromConfig(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if o.debug {
		printPoints(stdout, res.Points, csvOpts)
	}

	if o.output == "" {
		return 0
	}
	if err := writeOutput(fsys, o, cfg, csvOpts, res, inputSize, stderr); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func writeOutput(fsys fsutil.FileSystem, o options, cfg *config.ToolConfig, csvOpts export.CSVOptions, res *vtk.Result, inputSize int64, stderr io.Writer) error {
	switch ext := strings.ToLower(filepath.Ext(o.output)); ext {
	case ".csv":
		return createWith(fsys, o.output, func(w io.Writer) error {
			return export.WriteCSV(w, res.Points, csvOpts)
		})
	case ".html":
		return createWith(fsys, o.output, func(w io.Writer) error {
			return chart.WriteHTML(w, res.Points, cfg.GetChartTitle())
		})
	case ".png":
		return createWith(fsys, o.output, func(w io.Writer) error {
			return chart.WritePNG(w, res.Points, cfg.GetChartTitle())
		})
	case ".sqlite", ".db":
		database, err := db.NewDB(o.output)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()
		runID, err := database.RecordConversion(o.input, inputSize, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Stored %d points as run %s\n", len(res.Points), runID)
		return nil
	default:
		fmt.Fprintf(stderr, "Unrecognised output format %q, nothing written\n", ext)
		return nil
	}
}

// createWith creates path, hands it to write and closes it, reporting the
// first error.
func createWith(fsys fsutil.FileSystem, path string, write func(io.Writer) error) (err error) {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(f)
}

func printPoints(w io.Writer, points []vtk.Point, csvOpts export.CSVOptions) {
	for _, p := range points {
		row := export.FormatRow(p, csvOpts)
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = export.Header[i] + "=" + v
		}
		fmt.Fprintln(w, strings.Join(fields, " "))
	}
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Usage: vtktool [flags] input.vtk [output.{csv,sqlite,db,html,png}]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a VTK track log into position reports.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
}
