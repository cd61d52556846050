// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/shardstore/cmd/shardstore/cli"
	"github.com/bureau-foundation/shardstore/lib/attribute"
	"github.com/bureau-foundation/shardstore/lib/compress"
	"github.com/bureau-foundation/shardstore/lib/dataset"
	"github.com/bureau-foundation/shardstore/lib/shard"
)

type createParams struct {
	globalParams
	Structure        string   `flag:"structure,s" desc:"JSONC structure descriptor file"`
	Attributes       []string `flag:"attribute,a" desc:"attribute as name:dtype[shape], in record order (repeatable)"`
	Compression      string   `flag:"compression" desc:"shard codec (default: write.compression)"`
	Encoding         string   `flag:"encoding" desc:"record encoding, raw or cbor (default: write.encoding)"`
	ExamplesPerShard int      `flag:"examples-per-shard" desc:"shard rotation threshold (default: write.examples_per_shard)"`
}

func createCommand(streams Streams) *cli.Command {
	var params createParams
	return &cli.Command{
		Name:    "create",
		Summary: "Create an empty dataset",
		Description: `Create an empty dataset with a fixed structure: the attribute schema,
shard codec, record encoding, and examples per shard.

The structure comes either from a JSONC descriptor (--structure) or
from --attribute flags. Codec, encoding, and shard size flags override
the descriptor; without a descriptor they default to the write section
of the config. A relative dataset path resolves against store.root.`,
		Usage: "<dataset>",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("create", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Traces with a label, lz4 compressed",
				Command:     "shardstore create traces -a 'trace:float32[138]' -a 'label:int64[]' --compression lz4",
			},
			{
				Description: "From a descriptor file",
				Command:     "shardstore create /data/traces --structure traces.jsonc",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, "dataset"); err != nil {
				return err
			}
			session, err := params.open(streams, "create")
			if err != nil {
				return err
			}
			return session.finish(runCreate(session, streams, &params, args[0]))
		},
	}
}

func runCreate(session *session, streams Streams, params *createParams, name string) error {
	structure, err := params.structure(session)
	if err != nil {
		return err
	}

	if !filepath.IsAbs(name) {
		if err := session.config.EnsurePaths(); err != nil {
			return err
		}
	}
	path := session.config.DatasetPath(name)
	if _, err := dataset.Create(path, structure, session.datasetOptions()); err != nil {
		return err
	}

	fmt.Fprintf(streams.Stdout, "created %s: %s (%s, %s, %d per shard)\n",
		path, structure.Schema, structure.Compression, structure.Encoding, structure.ExamplesPerShard)
	return nil
}

// structure resolves the dataset structure from the descriptor or the
// attribute flags, then applies the codec, encoding, and shard size
// overrides.
func (p *createParams) structure(session *session) (dataset.Structure, error) {
	var structure dataset.Structure
	switch {
	case p.Structure != "" && len(p.Attributes) > 0:
		return dataset.Structure{}, errors.New("--structure and --attribute are mutually exclusive")
	case p.Structure != "":
		loaded, err := dataset.LoadStructure(p.Structure)
		if err != nil {
			return dataset.Structure{}, err
		}
		structure = loaded
	case len(p.Attributes) > 0:
		specs := make([]attribute.Spec, len(p.Attributes))
		for i, text := range p.Attributes {
			spec, err := attribute.ParseSpec(text)
			if err != nil {
				return dataset.Structure{}, err
			}
			specs[i] = spec
		}
		schema, err := attribute.NewSchema(specs)
		if err != nil {
			return dataset.Structure{}, err
		}
		write := session.config.Write
		// Validated with the config.
		structure.Compression, _ = write.CompressionKind()
		structure.Encoding, _ = write.RecordEncoding()
		structure.Schema = schema
		structure.ExamplesPerShard = write.ExamplesPerShard
	default:
		return dataset.Structure{}, errors.New("a schema is required: pass --structure or at least one --attribute")
	}

	if p.Compression != "" {
		kind, err := compress.ParseKind(p.Compression)
		if err != nil {
			return dataset.Structure{}, err
		}
		structure.Compression = kind
	}
	if p.Encoding != "" {
		encoding, err := shard.ParseEncoding(p.Encoding)
		if err != nil {
			return dataset.Structure{}, err
		}
		structure.Encoding = encoding
	}
	if p.ExamplesPerShard != 0 {
		structure.ExamplesPerShard = p.ExamplesPerShard
	}
	return structure, structure.Validate()
}
