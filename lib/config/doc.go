// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for shardstore.
//
// Configuration is loaded from a single file specified by either the
// SHARDSTORE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no ~/.config discovery and no file
// search; a command run without either uses [Default] unchanged.
//
// The file has four sections:
//
//	store:
//	  root: ${HOME}/datasets        # where dataset names resolve
//	write:
//	  compression: zstd             # codec for new datasets
//	  encoding: raw                 # record encoding for new datasets
//	  examples_per_shard: 256
//	read:
//	  shuffle_buffer: 0
//	  prefetch: 2
//	  seed: 0
//	  validate_concurrency: 0
//	log:
//	  level: info                   # debug, info, warn, error
//	  format: auto                  # auto, text, json
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${VAR}, and ${VAR:-default} patterns are expanded.
// Environment variables never override values set in the file.
package config
