package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/wbrown/edgefilter"
)

// exitCancelled is the conventional status for a run stopped by SIGINT.
const exitCancelled = 130

func main() {
	inputFile := flag.String("input", "",
		"Path to the input image file (required unless inputs are given as arguments)")
	outputFile := flag.String("output", "",
		"Path to save the filtered image (default: <input>_edges.png)")
	outDir := flag.String("outdir", "",
		"Directory for output files (default: next to each input)")
	variant := flag.String("variant", edgefilter.VariantFloat,
		"Kernel variant: float (4 channels) or int (3 channels, alpha kept)")
	configFile := flag.String("config", "",
		"Path to a TOML kernel configuration; overrides -variant")
	compare := flag.Bool("compare", false,
		"Also write a labelled source/result comparison sheet")
	compareHeight := flag.Int("compare-height", 480,
		"Maximum panel height of the comparison sheet, 0 for no limit")
	keepAlpha := flag.Bool("keepalpha", false,
		"Save the computed alpha channel instead of an opaque image")
	jobs := flag.Int("jobs", runtime.NumCPU(),
		"Number of files filtered concurrently in batch mode")
	quiet := flag.Bool("quiet", false,
		"Suppress the progress bar and informational logging")
	debug := flag.Bool("debug", false,
		"Enable debug logging, including per-pass engine events")
	printConfig := flag.Bool("print-config", false,
		"Print the effective kernel configuration as TOML and exit")
	flag.Parse()

	logger := initLogger(*debug, *quiet)
	if *debug {
		// Library events go through the same logrus sink.
		w := logger.WriterLevel(logrus.DebugLevel)
		defer w.Close()
		edgefilter.SetLogger(slog.New(slog.NewTextHandler(w,
			&slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := edgefilter.DefaultConfig(*variant)
	if *configFile != "" {
		var err error
		cfg, err = edgefilter.LoadConfig(*configFile)
		if err != nil {
			logger.WithError(err).Fatal("Error loading kernel configuration")
		}
	} else if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid -variant")
	}

	if *printConfig {
		if err := cfg.Encode(os.Stdout); err != nil {
			logger.WithError(err).Fatal("Error encoding configuration")
		}
		return
	}

	inputs := flag.Args()
	if *inputFile != "" {
		inputs = append([]string{*inputFile}, inputs...)
	}
	if len(inputs) == 0 {
		fmt.Println("Please provide the image using the -input flag")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if len(inputs) > 1 && *outputFile != "" {
		logger.Fatal("-output names a single file; use -outdir with several inputs")
	}
	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			logger.WithError(err).Fatal("Error creating output directory")
		}
	}

	opts := options{
		config:        cfg,
		outDir:        *outDir,
		output:        *outputFile,
		compare:       *compare,
		compareHeight: *compareHeight,
		keepAlpha:     *keepAlpha,
		progress:      !*quiet && len(inputs) == 1,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"variant":  cfg.Variant,
		"channels": cfg.Channels,
		"inputs":   len(inputs),
	}).Info("Starting edge filter")

	var err error
	if len(inputs) == 1 {
		err = processFile(ctx, logger, inputs[0], opts)
	} else {
		err = processBatch(ctx, logger, inputs, *jobs, opts)
	}

	switch {
	case errors.Is(err, errCancelled):
		logger.Warn("Cancelled")
		os.Exit(exitCancelled)
	case err != nil:
		logger.WithError(err).Error("Edge filter failed")
		os.Exit(1)
	}
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode, quiet bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	switch {
	case debugMode:
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	case quiet:
		logger.SetLevel(logrus.WarnLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
