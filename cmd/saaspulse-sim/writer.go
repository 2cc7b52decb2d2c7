package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"saaspulse-sim/internal/config"
	"saaspulse-sim/internal/logging"
	"saaspulse-sim/internal/sim"
)

const (
	defaultGreptimePort     = 4001
	defaultGreptimeDatabase = "public"
)

type writerOptions struct {
	printOnly bool
	tui       bool
	layout    []string
	logFile   string
	registry  prometheus.Registerer
}

// newWriters sets up the sinks selected by flags and env vars. It returns a
// single writer (fanning out when more than one sink is active) and a
// cleanup function closing every sink.
func newWriters(ctx context.Context, cfg *config.SimulationConfig, opts writerOptions) (sim.SnapshotWriter, func(), error) {
	log := logging.FromContext(ctx)
	var writers []sim.SnapshotWriter
	fail := func(err error) (sim.SnapshotWriter, func(), error) {
		sim.NewMultiWriter(writers...).Close()
		return nil, nil, err
	}

	base, err := baseWriter(cfg, opts)
	if err != nil {
		return fail(err)
	}
	writers = append(writers, base)

	if !opts.printOnly && cfg.Redis.Addr != "" {
		rw, err := sim.NewRedisWriter(ctx, cfg.Redis, cfg.History.Length, cfg.Activity.Capacity)
		if err != nil {
			return fail(err)
		}
		log.Info("mirroring state to redis", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.KeyPrefix)
		writers = append(writers, rw)
	}
	if opts.registry != nil {
		writers = append(writers, sim.NewPrometheusWriter(opts.registry))
	}
	if opts.logFile != "" {
		fw, err := sim.NewFileWriter(opts.logFile, opts.logFile+".history", opts.logFile+".activity")
		if err != nil {
			return fail(err)
		}
		writers = append(writers, fw)
	}

	if len(writers) == 1 {
		w := writers[0]
		return w, func() { closeWriter(w) }, nil
	}
	mw := sim.NewMultiWriter(writers...)
	return mw, func() { mw.Close() }, nil
}

func closeWriter(w sim.SnapshotWriter) {
	if c, ok := w.(interface{ Close() error }); ok {
		c.Close()
	}
}

// baseWriter chooses the primary sink: the TUI, STDOUT or GreptimeDB.
func baseWriter(cfg *config.SimulationConfig, opts writerOptions) (sim.SnapshotWriter, error) {
	if opts.tui {
		return sim.NewTUIWriter(cfg, opts.layout), nil
	}
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if opts.printOnly || endpoint == "" {
		return stdoutWriter(cfg), nil
	}
	host, port, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = defaultGreptimeDatabase
	}
	return sim.NewGreptimeDBWriter(host, port, database)
}

// stdoutWriter prints colored lines on a terminal and JSON otherwise.
func stdoutWriter(cfg *config.SimulationConfig) sim.SnapshotWriter {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return sim.NewColorStdoutWriter(cfg)
	}
	return sim.NewJSONStdoutWriter()
}

// parseEndpoint splits host[:port], defaulting the gRPC port.
func parseEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// no port given
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return "", 0, fmt.Errorf("invalid GREPTIMEDB_ENDPOINT port %q", portStr)
	}
	return host, port, nil
}
