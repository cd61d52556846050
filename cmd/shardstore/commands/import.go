// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/shardstore/cmd/shardstore/cli"
	"github.com/bureau-foundation/shardstore/lib/attribute"
)

// maxLineSize bounds one JSON line on import.
const maxLineSize = 64 << 20

type importParams struct {
	globalParams
	Input  string `flag:"input,i" desc:"input file, or - for stdin" default:"-"`
	Format string `flag:"format,f" desc:"input format: jsonl or raw" default:"jsonl"`
}

func importCommand(streams Streams) *cli.Command {
	var params importParams
	return &cli.Command{
		Name:    "import",
		Summary: "Append examples to a split",
		Description: `Append examples to a split, rotating shards at the dataset's
examples-per-shard threshold. The trailing partial shard is finalized
when the input ends.

Formats:
  jsonl  one JSON object per line, keyed by attribute name, with flat
         row-major arrays (scalars as bare numbers)
  raw    fixed-size records: each attribute's little-endian bytes, in
         schema order, with no framing

Only one writer may hold a split at a time.`,
		Usage: "<dataset> <split>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("import", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Import JSON lines from a file",
				Command:     "shardstore import traces train --input train.jsonl",
			},
			{
				Description: "Pipe raw float32 records",
				Command:     "capture-tool | shardstore import traces test --format raw",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, "dataset", "split"); err != nil {
				return err
			}
			session, err := params.open(streams, "import")
			if err != nil {
				return err
			}
			return session.finish(runImport(ctx, session, streams, &params, args[0], args[1]))
		},
	}
}

func runImport(ctx context.Context, session *session, streams Streams, params *importParams, name, split string) error {
	ds, err := session.openDataset(name)
	if err != nil {
		return err
	}
	schema := ds.Structure().Schema

	input := streams.Stdin
	if params.Input != "-" {
		file, err := os.Open(params.Input)
		if err != nil {
			return err
		}
		defer file.Close()
		input = file
	}

	var next func() (attribute.Example, error)
	switch params.Format {
	case "jsonl":
		next = jsonlSource(input, schema)
	case "raw":
		next = rawSource(input, schema)
	default:
		return fmt.Errorf("unknown input format %q (want jsonl or raw)", params.Format)
	}

	writer, err := ds.OpenWriter(split)
	if err != nil {
		return err
	}
	importErr := func() error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			example, err := next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if err := writer.WriteExample(example); err != nil {
				return err
			}
		}
	}()
	err = importErr
	// A failed write is sticky, so Close reports it a second time.
	if closeErr := writer.Close(); closeErr != nil && !errors.Is(importErr, closeErr) {
		err = errors.Join(importErr, closeErr)
	}
	if err != nil {
		session.logger.Error("import stopped",
			"split", split,
			"examples", writer.Examples(),
			"shards", writer.Shards(),
			"error", err,
		)
		return err
	}

	session.logger.Info("import finished",
		"split", split,
		"examples", writer.Examples(),
		"shards", writer.Shards(),
	)
	fmt.Fprintf(streams.Stdout, "imported %d examples into %s (%d shards)\n",
		writer.Examples(), split, writer.Shards())
	return nil
}

func jsonlSource(input io.Reader, schema *attribute.Schema) func() (attribute.Example, error) {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	line := 0
	return func() (attribute.Example, error) {
		for scanner.Scan() {
			line++
			text := bytes.TrimSpace(scanner.Bytes())
			if len(text) == 0 {
				continue
			}
			example, err := decodeExampleJSON(schema, text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			return example, nil
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		return nil, io.EOF
	}
}

func rawSource(input io.Reader, schema *attribute.Schema) func() (attribute.Example, error) {
	reader := bufio.NewReader(input)
	record := 0
	return func() (attribute.Example, error) {
		buffer := make([]byte, schema.ExampleSize())
		n, err := io.ReadFull(reader, buffer)
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %d of %d bytes: %w", record, n, len(buffer), err)
		}
		example := make(attribute.Example, schema.Len())
		for i := range example {
			offset := schema.Offset(i)
			example[i] = buffer[offset : offset+schema.Attribute(i).ByteSize()]
		}
		record++
		return example, nil
	}
}
