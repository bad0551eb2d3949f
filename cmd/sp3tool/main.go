// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.20
//

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	m "github.com/mkhts/sp3"
	"github.com/mkhts/sp3/astro"
)

func main() {

	// Parse command line arguments
	args, err := parseArgs()
	if err != nil {
		m.PrintE(err)
		flag.Usage()
		os.Exit(1)
	}

	// Config file, then logging
	if err := applyConfig(&args); err != nil {
		m.PrintE(err)
		os.Exit(1)
	}

	// Run the main application
	if err := runApplication(args); err != nil {
		m.PrintE(err)
		os.Exit(1)
	}
}

// Main application processing
func runApplication(args cmdOpt) error {

	// Load input files
	files, err := loadInputFiles(args.files)
	if err != nil {
		return fmt.Errorf("failed to load input files: %w", err)
	}

	met := newCollector()
	for i, ds := range files {
		met.observe(filepath.Base(args.files[i]), ds)
	}

	// The output file is touched only when the command succeeds
	var buf bytes.Buffer
	if err := runCommand(args, files, &buf, met); err != nil {
		return err
	}

	// Prepare output file
	out, err := createOutput(args.outFn)
	if err != nil {
		return fmt.Errorf("failed to prepare output: %w", err)
	}
	_, err = buf.WriteTo(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	// Statistics for node exporter
	if len(args.metricsFn) > 0 {
		if err := met.write(args.metricsFn); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// Dispatch subcommand
func runCommand(args cmdOpt, files []*m.SP3, out io.Writer, met *collector) error {
	switch args.cmd {
	case "info":
		for i, ds := range files {
			printInfo(out, args.files[i], ds)
		}
		return nil
	case "format":
		return selectData(args, files[0]).Format(out)
	case "merge":
		ds, err := mergeFiles(files, args.policy)
		if err != nil {
			return err
		}
		met.observe("merged", ds)
		return selectData(args, ds).Format(out)
	case "azel":
		return printAzEl(out, selectData(args, files[0]), args.station, args.elMask)
	case "elements":
		return printElements(out, selectData(args, files[0]))
	}
	return fmt.Errorf("unknown command %q", args.cmd)
}

// Load input files
func loadInputFiles(fns []string) ([]*m.SP3, error) {
	files := make([]*m.SP3, 0, len(fns))
	for _, fn := range fns {
		ds, err := readSP3(fn)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
		if m.DBG_ >= 1 {
			m.PrintA("--- sp3 data (%s)---\n", filepath.Base(fn))
			m.PrintA("%s\n", ds)
		}
		files = append(files, ds)
	}
	return files, nil
}

// Fold all files into one, in argument order
func mergeFiles(files []*m.SP3, policy m.MergePolicy) (*m.SP3, error) {
	ds := files[0]
	for _, b := range files[1:] {
		var err error
		ds, err = m.MergeWith(ds, b, policy)
		if err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// Apply epoch window and satellite exclusion
func selectData(args cmdOpt, ds *m.SP3) *m.SP3 {
	if args.ts.IsZero() && args.te.IsZero() && len(args.exSats) == 0 {
		return ds
	}
	scale := ds.Header.TimeScale
	ts := args.ts.Epoch(scale)
	te := args.te.Epoch(scale)
	return ds.Filter(func(k m.RecordKey) bool {
		if !args.ts.IsZero() && k.Epoch.Before(ts) {
			return false
		}
		if !args.te.IsZero() && te.Before(k.Epoch) {
			return false
		}
		return !args.exSats.Contains(k.Sat)
	})
}

func printInfo(w io.Writer, fn string, ds *m.SP3) {
	st := ds.Stats
	fmt.Fprintf(w, "--- %s ---", fn)
	fmt.Fprintln(w, ds)
	fmt.Fprintf(w, "records:\n\tentries=%d position=%d velocity=%d\n", ds.Len(), st.PositionRecords, st.VelocityRecords)
	fmt.Fprintf(w, "\tshort=%d zero=%d velocity-first=%d ignored=%d\n", st.ShortRecords, st.ZeroDiscarded, st.VelocityFirst, st.IgnoredLines)
	for _, c := range ds.Header.Comments {
		fmt.Fprintf(w, "\t/* %s\n", c)
	}
}

// Output look angle table
func printAzEl(w io.Writer, ds *m.SP3, station astro.PosLLH, elMask float64) error {
	if station == (astro.PosLLH{}) {
		return errors.New("the station position must be specified! (-l option)")
	}
	fmt.Fprintf(w, "%% station   : %s\n", &station)
	fmt.Fprintf(w, "%%  %-3s               sat     az(deg)    el(deg)       range(km)  trop(m) flag\n", ds.Header.TimeScale)
	atts := astro.Attitudes(ds.States(), station)
	for a := range astro.AboveMask(atts, astro.ToRad(elMask)) {
		mark := ""
		if a.Maneuver {
			mark = "M"
		}
		trop := astro.SlantDelay(station, a.Epoch, a.El)
		fmt.Fprintf(w, "%s %s %10.4f %10.4f %15.3f %8.3f %s\n",
			a.Epoch.Time.Format("2006/01/02 15:04:05.000"), a.Sat, astro.ToDeg(a.Az), astro.ToDeg(a.El), a.Range, trop, mark)
	}
	return nil
}

// Output osculating elements of every state with velocity
func printElements(w io.Writer, ds *m.SP3) error {
	if !ds.HasVelocity() {
		return errors.New("no velocity records in the file")
	}
	for s := range ds.States() {
		el, err := astro.StateElements(s)
		if err != nil {
			m.PrintD(2, "skip: %s\n", err)
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", s.Epoch.Time.Format("2006/01/02 15:04:05.000"), s.Sat, el)
	}
	return nil
}

// Structure to hold command line argument information
type cmdOpt struct {
	cmd       string
	files     []string
	outFn     string
	configFn  string
	metricsFn string
	policy    m.MergePolicy
	exSats    m.SatVar
	ts, te    m.TimeStr
	station   astro.PosLLH
	elMask    float64
	setFlags  map[string]bool
}

// Minimum number of files per command
var minFiles = map[string]int{
	"info":     1,
	"format":   1,
	"merge":    2,
	"azel":     1,
	"elements": 1,
}

// Parse command line arguments
func parseArgs() (a cmdOpt, err error) {
	flag.Usage = func() {
		m.PrintA(`
[Usage]
	%s [Options] info     file.sp3 [file.sp3 ...]
	%s [Options] format   file.sp3
	%s [Options] merge    a.sp3 b.sp3 [c.sp3 ...]
	%s [Options] azel  -l "lat lon hei" file.sp3
	%s [Options] elements file.sp3

	Input files may be gzip compressed. An output path ending in .gz is compressed.

[Options]
`, filepath.Base(os.Args[0]), filepath.Base(os.Args[0]), filepath.Base(os.Args[0]), filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.StringVar(&a.outFn, "o", "", "Output file path. If not specified, output to stdout.")
	flag.StringVar(&a.configFn, "config", "", "YAML configuration file (log rotation, merge policy, station, metrics)")
	flag.StringVar(&a.metricsFn, "metrics", "", "Write parse statistics to this file in Prometheus text format")
	flag.TextVar(&a.policy, "policy", m.PreferFirst, "Merge policy for keys found in both files. first, second or reject")
	flag.Var(&a.exSats, "ex", "List of satellites to exclude. Comma-separated satellite names without spaces like C02,E14.")
	flag.TextVar(&a.ts, "ts", new(m.TimeStr), "Start epoch in the file's time scale. Enclose in quotes like -ts \"2023/01/01 00:00:00\"")
	flag.TextVar(&a.te, "te", new(m.TimeStr), "End epoch in the file's time scale. This epoch is also included.")
	flag.Var(&a.station, "l", "Station latitude/longitude/ellipsoidal height for azel. Enclose in quotes like -l \"35.73101206 139.7396917 80.33\"")
	flag.Float64Var(&a.elMask, "m", 0, "Elevation mask [deg] for azel")
	var dbg int
	flag.IntVar(&dbg, "x", 0, "Debug information display. Specify level value. 0(OFF), 1(display), 2(detailed display), 3(most detailed)")
	flag.Parse()

	if flag.NArg() < 1 {
		return a, errors.New("no command")
	}
	a.cmd = flag.Arg(0)
	a.files = flag.Args()[1:]
	n, ok := minFiles[a.cmd]
	if !ok {
		return a, fmt.Errorf("unknown command %q", a.cmd)
	}
	if len(a.files) < n {
		return a, fmt.Errorf("%s needs at least %d file(s)", a.cmd, n)
	}
	if n == 1 && a.cmd != "info" && len(a.files) > 1 {
		return a, fmt.Errorf("%s takes one file", a.cmd)
	}

	// Remember explicit flags so the config file does not override them
	a.setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) {
		a.setFlags[f.Name] = true
	})
	m.DBG_ = dbg
	return
}
