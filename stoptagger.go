// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/patrickbr/stoptagger/config"
	"github.com/patrickbr/stoptagger/osmxml"
	"github.com/patrickbr/stoptagger/processors"
	"github.com/patrickbr/stoptagger/proj"
	"github.com/patrickbr/stoptagger/registry"
	"github.com/patrickbr/stoptagger/report"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	flag "github.com/spf13/pflag"
)

const (
	shelterConflictsFile = "shelter-conflicts.csv"
	unmatchedRefsFile    = "unmatched-refs.csv"
	outOfRangeFile       = "out-of-range.csv"
	missingInOsmFile     = "missing-in-osm.csv"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "stoptagger - (C) 2016-2024 by Patrick Brosi <info@patrickbrosi.de>\n\nUsage:\n\n  %s [<options>] <input.osm> <stops.csv|stops.geojson|gtfs> <output.osm>\n\nFinds public transport stops in an OSM file by their 'ref'-tag and updates them with\nregistry data:\n - 'ref'-tag values of stops in Helsinki are prefixed with 'H' (or 'XH' for virtual stops)\n - adds a 'shelter'-tag with value 'yes' or 'no' if missing\n - adds 'name', 'name:fi' and 'name:sv'-tags if missing\n\nAllowed options:\n\n", os.Args[0])
		flag.PrintDefaults()
	}

	configFile := flag.StringP("config", "c", "", "YAML configuration file")
	maxDist := flag.Float64P("max-dist", "", config.DefaultMaxDist, "reject matches whose registry and OSM positions are at least this many meters apart, 0 disables the check")
	projection := flag.StringP("projection", "", config.DefaultProjection, "planar projection used for the distance check ("+proj.EPSG3067+" or "+proj.EPSG3857+")")
	reportDir := flag.StringP("report-dir", "", config.DefaultReportDir, "directory for the log file and the CSV reports")
	logFile := flag.StringP("log-file", "", config.DefaultLogFile, "log file, relative to --report-dir")
	logLevel := flag.StringP("log-level", "", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	help := flag.BoolP("help", "?", false, "this message")

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	args := flag.Args()

	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "Expected input OSM file, registry data and output OSM file, see --help")
		os.Exit(1)
	}

	conf := config.Default()

	if len(*configFile) > 0 {
		var err error
		conf, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not load configuration: %s\n", err.Error())
			os.Exit(1)
		}
	}

	over := config.Overrides{}
	if flag.CommandLine.Changed("max-dist") {
		over.MaxDist = maxDist
	}
	if flag.CommandLine.Changed("projection") {
		over.Projection = projection
	}
	if flag.CommandLine.Changed("report-dir") {
		over.ReportDir = reportDir
	}
	if flag.CommandLine.Changed("log-file") {
		over.LogFile = logFile
	}
	if flag.CommandLine.Changed("log-level") {
		over.LogLevel = logLevel
	}
	conf = over.Apply(conf)

	if errs := conf.Check(); len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "Invalid configuration:")
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, " - %s\n", err.Error())
		}
		os.Exit(1)
	}

	os.Exit(run(args[0], args[1], args[2], conf, os.Stdout, os.Stderr))
}

// run tags the stops of inPath with the registry data in registryPath
// and writes the result to outPath. It returns the exit status.
func run(inPath, registryPath, outPath string, conf config.Config, stdout, stderr io.Writer) int {
	if err := os.MkdirAll(conf.ReportDir, os.ModePerm); err != nil {
		fmt.Fprintf(stderr, "Could not create report directory '%s': %s\n", conf.ReportDir, err.Error())
		return 1
	}

	logPath := conf.LogFile
	if !filepath.IsAbs(logPath) {
		logPath = filepath.Join(conf.ReportDir, logPath)
	}

	lf, err := os.Create(logPath)
	if err != nil {
		fmt.Fprintf(stderr, "Could not create log file '%s': %s\n", logPath, err.Error())
		return 1
	}
	defer lf.Close()

	log := newLogger(lf, conf.LogLevel)

	projection, err := proj.ByName(conf.Projection)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	fmt.Fprintf(stdout, "Parsing OSM file in '%s' ...", inPath)
	doc, err := osmxml.ParseFile(inPath)
	if err != nil {
		fmt.Fprintf(stderr, "\nError while parsing OSM file:\n")
		fmt.Fprintln(stderr, err.Error())
		log.Error().Err(err).Str("path", inPath).Msg("could not parse OSM file")
		return 1
	}
	fmt.Fprintf(stdout, " done. (%d elements)\n", len(doc.Elements()))

	fmt.Fprintf(stdout, "Reading registry stops in '%s' ...", registryPath)
	stops, err := registry.Read(registryPath, log)
	if err != nil {
		// continue with whatever could be read
		fmt.Fprintf(stderr, "\nError while reading registry stops: %s\n", err.Error())
		log.Error().Err(err).Str("path", registryPath).Msg("could not read registry stops")
	}

	idx := registry.NewIndex(stops)
	fmt.Fprintf(stdout, " done. (%d stops, %d unique refs)\n", len(stops), idx.Len())
	if idx.Shadowed() > 0 {
		log.Warn().Int("shadowed", idx.Shadowed()).Msg("registry stops with duplicate refs, the last one read is used")
	}

	rep := report.New()
	rep.SetRegistry(len(stops), idx.Len())

	tagger := processors.StopTagger{
		Matcher:    processors.NewMatcher(idx),
		Projection: projection,
		MaxDist:    conf.MaxDist,
		Report:     rep,
		Log:        log,
	}

	minzers := []processors.Processor{tagger}

	for _, m := range minzers {
		m.Run(doc)
	}

	snap := rep.Snapshot()
	report.WriteSummary(stdout, snap)

	writeReport(stdout, stderr, log, filepath.Join(conf.ReportDir, shelterConflictsFile), func(w io.Writer) error {
		return report.WriteShelterConflicts(w, snap)
	})
	writeReport(stdout, stderr, log, filepath.Join(conf.ReportDir, unmatchedRefsFile), func(w io.Writer) error {
		return report.WriteUnmatched(w, snap)
	})
	writeReport(stdout, stderr, log, filepath.Join(conf.ReportDir, outOfRangeFile), func(w io.Writer) error {
		return report.WriteOutOfRange(w, snap)
	})
	writeReport(stdout, stderr, log, filepath.Join(conf.ReportDir, missingInOsmFile), func(w io.Writer) error {
		return report.WriteMissingInOSM(w, snap, idx.Stops())
	})

	fmt.Fprintf(stdout, "\nOutputting OSM file to '%s'...", outPath)

	if err := doc.WriteFile(outPath); err != nil {
		fmt.Fprintf(stderr, "\nError while writing OSM file in '%s':\n ", outPath)
		fmt.Fprintln(stderr, err.Error())
		log.Error().Err(err).Str("path", outPath).Msg("could not write OSM file")
		return 1
	}

	fmt.Fprintf(stdout, " done.\n")
	log.Info().Str("path", outPath).Msg("saved OSM file with updated tags")

	return 0
}

func writeReport(stdout, stderr io.Writer, log zerolog.Logger, path string, write func(io.Writer) error) {
	f, err := os.Create(path)
	if err == nil {
		err = write(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}

	if err != nil {
		err = errors.Wrapf(err, "writing report '%s'", path)
		fmt.Fprintln(stderr, err.Error())
		log.Error().Stack().Err(err).Msg("could not write report")
		return
	}

	fmt.Fprintf(stdout, "Saved %s\n", path)
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
