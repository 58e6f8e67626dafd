// Command hdcmem encodes records as hypervectors and ranks them against a
// partial query.
//
// Usage:
//
//	hdcmem                                     Run the built-in farm demo
//	hdcmem -records farms.yaml -query crop=cannabis,region=chiang_mai
//	hdcmem -config hdcmem.yaml -records farms.yaml -query status=approved -top 3 -metrics
//
// Records file:
//
//	records:
//	  - id: farm_123
//	    fields: {crop: cannabis, status: approved, region: chiang_mai}
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/hdc-research/hdcmem"
	"github.com/hdc-research/hdcmem/config"
	"github.com/hdc-research/hdcmem/report"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// demoRecords is the data set used when no records file is given.
var demoRecords = []config.Record{
	{ID: "farm_123", Fields: map[string]string{"crop": "cannabis", "status": "approved", "region": "chiang_mai"}},
	{ID: "farm_456", Fields: map[string]string{"crop": "durian", "status": "pending", "region": "phuket"}},
	{ID: "farm_789", Fields: map[string]string{"crop": "cannabis", "status": "rejected", "region": "phuket"}},
}

const demoQuery = "crop=cannabis,region=chiang_mai"

type flags struct {
	configPath  string
	recordsPath string
	query       string
	top         int
	backend     string
	seed        uint64
	dims        int
	logLevel    string
	metrics     bool
}

func parseFlags(args []string, stderr io.Writer) (flags, map[string]bool, error) {
	var f flags
	fs := flag.NewFlagSet("hdcmem", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.StringVar(&f.recordsPath, "records", "", "YAML records file (default: built-in farm demo)")
	fs.StringVar(&f.query, "query", "", "query fields as role=value,... (default: "+demoQuery+")")
	fs.IntVar(&f.top, "top", 0, "print at most n matches as a table (0 prints all as key: score)")
	fs.StringVar(&f.backend, "backend", "", "memory backend: linear | indexed")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed")
	fs.IntVar(&f.dims, "dims", 0, "hypervector dimension")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug | info | warn | error")
	fs.BoolVar(&f.metrics, "metrics", false, "print Prometheus metrics after the run")
	if err := fs.Parse(args); err != nil {
		return f, nil, err
	}
	if fs.NArg() > 0 {
		return f, nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

func loadConfig(f flags, set map[string]bool) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}
	if set["backend"] {
		cfg.Backend = f.backend
	}
	if set["seed"] {
		cfg.Seed = f.seed
	}
	if set["dims"] {
		cfg.Dims = f.dims
	}
	if set["log-level"] {
		cfg.Log.Level = f.logLevel
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config, w io.Writer) (*hdcmem.Logger, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Log.Format == "json" {
		return hdcmem.NewJSONLogger(w, level), nil
	}
	return hdcmem.NewTextLogger(w, level), nil
}

// parseQuery splits "role=value,role=value" into fields.
func parseQuery(s string) (map[string]string, error) {
	fields := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		role, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(role) == "" || strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("query field %q: want role=value", part)
		}
		fields[strings.TrimSpace(role)] = strings.TrimSpace(value)
	}
	if len(fields) == 0 {
		return nil, errors.New("query has no fields")
	}
	return fields, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	f, set, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if f.top < 0 {
		return fmt.Errorf("-top must not be negative, got %d", f.top)
	}
	cfg, err := loadConfig(f, set)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := newLogger(cfg, stderr)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	records := demoRecords
	if f.recordsPath != "" {
		if records, err = config.LoadRecords(f.recordsPath); err != nil {
			return err
		}
	}
	q := f.query
	if q == "" {
		q = demoQuery
	}
	fields, err := parseQuery(q)
	if err != nil {
		return err
	}

	opts, err := hdcmem.ConfigOptions(cfg)
	if err != nil {
		return err
	}
	opts = append(opts, hdcmem.WithLogger(log))
	var reg *prometheus.Registry
	if f.metrics {
		reg = prometheus.NewRegistry()
		opts = append(opts, hdcmem.WithMetrics(reg))
	}

	store, err := hdcmem.New(opts...)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := store.Put(r.ID, r.Fields); err != nil {
			return err
		}
	}
	log.Info("records loaded", "count", store.Len(), "dimension", store.Dims(), "backend", cfg.Backend)

	matches, err := store.Query(fields)
	if err != nil {
		return err
	}
	if f.top > 0 {
		err = report.Table(stdout, matches, f.top)
	} else {
		err = report.Write(stdout, matches)
	}
	if err != nil {
		return err
	}

	if reg != nil {
		return writeMetrics(stdout, reg)
	}
	return nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
