// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the shardstore command tree.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/shardstore/cmd/shardstore/cli"
	"github.com/bureau-foundation/shardstore/lib/config"
	"github.com/bureau-foundation/shardstore/lib/dataset"
)

// Streams are the standard streams commands read from and write to.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Root builds the complete shardstore command tree.
func Root(streams Streams) *cli.Command {
	return &cli.Command{
		Name: "shardstore",
		Description: `shardstore: sharded example-dataset store.

Write fixed-schema examples into compressed, checksummed shard files,
then stream them back with bounded shuffling, repetition, and
prefetching.`,
		HelpOutput: streams.Stderr,
		Commands: []*cli.Command{
			createCommand(streams),
			importCommand(streams),
			infoCommand(streams),
			checkCommand(streams),
			iterateCommand(streams),
			codecsCommand(streams),
			versionCommand(streams),
		},
		Examples: []cli.Example{
			{
				Description: "Create a dataset of 138-sample float32 traces",
				Command:     "shardstore create traces --attribute 'trace:float32[138]' --compression zstd",
			},
			{
				Description: "Import JSON lines into the train split",
				Command:     "shardstore import traces train --input traces.jsonl",
			},
			{
				Description: "Verify every shard",
				Command:     "shardstore check traces",
			},
			{
				Description: "Stream a shuffled pass",
				Command:     "shardstore iterate traces train --shuffle 1024 --seed 7",
			},
		},
	}
}

// globalParams are the flags every dataset command accepts.
type globalParams struct {
	ConfigPath  string `flag:"config" desc:"config file (default: $SHARDSTORE_CONFIG, else built-in defaults)"`
	LogLevel    string `flag:"log-level" desc:"override log.level from the config"`
	MetricsFile string `flag:"metrics-file" desc:"write Prometheus metrics in text format to this file when the command finishes"`
}

// session is the per-invocation state a dataset command runs with.
type session struct {
	config      *config.Config
	logger      *slog.Logger
	registry    *prometheus.Registry
	metrics     *dataset.Metrics
	metricsFile string
}

func (p *globalParams) open(streams Streams, command string) (*session, error) {
	cfg, err := p.loadConfig()
	if err != nil {
		return nil, err
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(streams.Stderr, level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	registry := prometheus.NewRegistry()
	return &session{
		config:      cfg,
		logger:      logger.With("command", command),
		registry:    registry,
		metrics:     dataset.NewMetrics(registry),
		metricsFile: p.MetricsFile,
	}, nil
}

// loadConfig reads --config if given, else SHARDSTORE_CONFIG if set,
// else starts from the defaults. --log-level applies on top.
func (p *globalParams) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case p.ConfigPath != "":
		cfg, err = config.LoadFile(p.ConfigPath)
	case os.Getenv(config.EnvVar) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if p.LogLevel != "" {
		cfg.Log.Level = p.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (s *session) datasetOptions() dataset.Options {
	return dataset.Options{Logger: s.logger, Metrics: s.metrics}
}

func (s *session) openDataset(name string) (*dataset.Dataset, error) {
	return dataset.Open(s.config.DatasetPath(name), s.datasetOptions())
}

// finish writes the metrics file, if one was requested, and returns
// err joined with any failure to do so.
func (s *session) finish(err error) error {
	if s.metricsFile == "" {
		return err
	}
	if writeErr := prometheus.WriteToTextfile(s.metricsFile, s.registry); writeErr != nil {
		return errors.Join(err, fmt.Errorf("writing metrics: %w", writeErr))
	}
	return err
}

func requireArgs(args []string, names ...string) error {
	if len(args) == len(names) {
		return nil
	}
	if len(args) < len(names) {
		return fmt.Errorf("missing argument <%s>", names[len(args)])
	}
	return fmt.Errorf("unexpected argument %q", args[len(names)])
}
