// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/bureau-foundation/shardstore/lib/attribute"
	"github.com/bureau-foundation/shardstore/lib/config"
	"github.com/bureau-foundation/shardstore/lib/dataset"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the command tree with isolated configuration and
// captured streams.
func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	root := Root(Streams{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	err := root.Execute(context.Background(), args)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func mustExecute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	result := execute(t, stdin, args...)
	if result.err != nil {
		t.Fatalf("shardstore %s: %v\nstderr:\n%s", strings.Join(args, " "), result.err, result.stderr)
	}
	return result.stdout
}

func shardFiles(t *testing.T, root, split string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(root, "splits", split, "*.shard"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	return files
}

const fiveExamples = `{"trace":[0.5,1,2],"label":0}
{"trace":[1.25,-3,4],"label":1}
{"trace":[2.5,5,6],"label":2}
{"trace":[3.75,7,8],"label":3}
{"trace":[5,9,10],"label":-4}
`

func TestCreateImportIterate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "traces")

	output := mustExecute(t, "", "create", root,
		"-a", "trace:float32[3]", "-a", "label:int64[]",
		"--compression", "lz4", "--examples-per-shard", "2")
	if !strings.Contains(output, "created "+root) || !strings.Contains(output, "lz4") {
		t.Errorf("create output = %q", output)
	}

	output = mustExecute(t, fiveExamples, "import", root, "train")
	if output != "imported 5 examples into train (3 shards)\n" {
		t.Errorf("import output = %q", output)
	}
	if files := shardFiles(t, root, "train"); len(files) != 3 {
		t.Errorf("found %d shard files, want 3", len(files))
	}

	output = mustExecute(t, "", "iterate", root, "train", "--shuffle", "0")
	if output != fiveExamples {
		t.Errorf("iterate output:\n%s\nwant:\n%s", output, fiveExamples)
	}

	var info infoResult
	if err := json.Unmarshal([]byte(mustExecute(t, "", "info", root, "--json")), &info); err != nil {
		t.Fatalf("decoding info: %v", err)
	}
	if len(info.Splits) != 1 {
		t.Fatalf("info splits = %+v, want one", info.Splits)
	}
	if split := info.Splits[0]; split.Name != "train" || split.Shards != 3 || split.Examples != 5 || split.Bytes <= 0 {
		t.Errorf("info split = %+v", split)
	}
	if info.Structure.ExamplesPerShard != 2 || len(info.Structure.Attributes) != 2 {
		t.Errorf("info structure = %+v", info.Structure)
	}

	output = mustExecute(t, "", "check", root)
	if output != "ok: 3 shards in 1 splits\n" {
		t.Errorf("check output = %q", output)
	}
}

func TestCreateFromStructure(t *testing.T) {
	dir := t.TempDir()
	descriptor := filepath.Join(dir, "structure.jsonc")
	content := `{
  // waveform and its class
  "attributes": [
    {"name": "wave", "dtype": "float16", "shape": [4]},
    {"name": "class", "dtype": "uint8", "shape": []},
  ],
  "compression": "gzip",
  "encoding": "raw",
  "examples_per_shard": 8,
}`
	if err := os.WriteFile(descriptor, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	root := filepath.Join(dir, "waves")
	mustExecute(t, "", "create", root, "--structure", descriptor, "--encoding", "cbor")

	output := mustExecute(t, "", "info", root)
	for _, want := range []string{
		"schema:    wave:float16[4] class:uint8[]",
		"codec:     gzip",
		"encoding:  cbor",
		"per shard: 8",
		"no splits",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("info output missing %q:\n%s", want, output)
		}
	}
}

func TestCreateRejects(t *testing.T) {
	dir := t.TempDir()
	descriptor := filepath.Join(dir, "structure.jsonc")
	if err := os.WriteFile(descriptor, []byte(`{"attributes": [{"name": "x", "dtype": "int8", "shape": [1]}], "examples_per_shard": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(dir, "existing")
	mustExecute(t, "", "create", existing, "-a", "x:int8[1]")

	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"no schema", []string{"create", filepath.Join(dir, "a")}, nil},
		{"both sources", []string{"create", filepath.Join(dir, "b"), "-s", descriptor, "-a", "x:int8[1]"}, nil},
		{"bad attribute", []string{"create", filepath.Join(dir, "c"), "-a", "x:int9[1]"}, attribute.ErrInvalidSchema},
		{"bad codec", []string{"create", filepath.Join(dir, "d"), "-a", "x:int8[1]", "--compression", "brotli"}, nil},
		{"bad shard size", []string{"create", filepath.Join(dir, "e"), "-a", "x:int8[1]", "--examples-per-shard", "-1"}, dataset.ErrInvalidStructure},
		{"existing", []string{"create", existing, "-a", "x:int8[1]"}, dataset.ErrExists},
		{"missing path", []string{"create"}, nil},
		{"extra argument", []string{"create", filepath.Join(dir, "f"), "g", "-a", "x:int8[1]"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := execute(t, "", tt.args...)
			if result.err == nil {
				t.Fatalf("create succeeded: %s", result.stdout)
			}
			if tt.is != nil && !errors.Is(result.err, tt.is) {
				t.Errorf("error = %v, want %v", result.err, tt.is)
			}
		})
	}
}

func TestImportRaw(t *testing.T) {
	root := filepath.Join(t.TempDir(), "pairs")
	mustExecute(t, "", "create", root, "-a", "pair:float32[2]", "--examples-per-shard", "2")

	input := attribute.Float32Bytes([]float32{1, 2, 3, 4, 5, 6})
	output := mustExecute(t, string(input), "import", root, "train", "--format", "raw")
	if output != "imported 3 examples into train (2 shards)\n" {
		t.Errorf("import output = %q", output)
	}

	if got := mustExecute(t, "", "iterate", root, "train", "--format", "raw"); got != string(input) {
		t.Errorf("raw iterate returned %d bytes, want the %d imported", len(got), len(input))
	}
	if got := mustExecute(t, "", "iterate", root, "train", "--format", "count"); got != "3\n" {
		t.Errorf("count = %q, want 3", got)
	}

	// A trailing partial record fails the import after committing the
	// complete ones.
	partial := append(attribute.Float32Bytes([]float32{7, 8}), 0, 0)
	result := execute(t, string(partial), "import", root, "train", "--format", "raw")
	if result.err == nil || !strings.Contains(result.err.Error(), "record 1") {
		t.Fatalf("import error = %v, want partial record 1", result.err)
	}
	if got := mustExecute(t, "", "iterate", root, "train", "--format", "count"); got != "4\n" {
		t.Errorf("count after partial import = %q, want 4", got)
	}
}

func TestImportJSONLErrors(t *testing.T) {
	root := filepath.Join(t.TempDir(), "traces")
	mustExecute(t, "", "create", root, "-a", "trace:float32[3]", "-a", "label:int64[]")

	tests := []struct {
		name  string
		input string
		want  string
		is    error
	}{
		{"unknown attribute", "{\"trace\":[1,2,3],\"label\":0}\n{\"trace\":[1,2,3],\"color\":0}\n", "line 2", attribute.ErrSchemaMismatch},
		{"missing attribute", `{"trace":[1,2,3]}`, "line 1", attribute.ErrSchemaMismatch},
		{"wrong length", `{"trace":[1,2],"label":0}`, "has 2 elements", attribute.ErrSchemaMismatch},
		{"not a number", `{"trace":[1,2,"x"],"label":0}`, "element 2", nil},
		{"null element", `{"trace":[1,2,null],"label":0}`, "unsupported element", nil},
		{"malformed", `{"trace":`, "line 1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := execute(t, tt.input, "import", root, "train")
			if result.err == nil || !strings.Contains(result.err.Error(), tt.want) {
				t.Fatalf("import error = %v, want mention of %q", result.err, tt.want)
			}
			if tt.is != nil && !errors.Is(result.err, tt.is) {
				t.Errorf("error = %v, want %v", result.err, tt.is)
			}
		})
	}

	if result := execute(t, "", "import", root, "train", "--format", "csv"); result.err == nil {
		t.Error("import accepted format csv")
	}
}

func TestIterateShuffleAndRepeat(t *testing.T) {
	root := filepath.Join(t.TempDir(), "traces")
	mustExecute(t, "", "create", root, "-a", "trace:float32[3]", "-a", "label:int64[]", "--examples-per-shard", "2")
	mustExecute(t, fiveExamples, "import", root, "train")

	shuffled := mustExecute(t, "", "iterate", root, "train", "--shuffle", "3", "--seed", "9")
	got := strings.Split(strings.TrimSuffix(shuffled, "\n"), "\n")
	want := strings.Split(strings.TrimSuffix(fiveExamples, "\n"), "\n")
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("shuffled pass is not a permutation:\n%s", shuffled)
	}

	again := mustExecute(t, "", "iterate", root, "train", "--shuffle", "3", "--seed", "9")
	if again != shuffled {
		t.Error("same seed produced a different order")
	}

	count := mustExecute(t, "", "iterate", root, "train", "--shuffle", "3", "--repeat", "--limit", "23", "--format", "count")
	if count != "23\n" {
		t.Errorf("repeat count = %q, want 23", count)
	}

	if result := execute(t, "", "iterate", root, "train", "--format", "yaml"); result.err == nil {
		t.Error("iterate accepted format yaml")
	}
	if result := execute(t, "", "iterate", root, "train", "--limit", "-1"); result.err == nil {
		t.Error("iterate accepted a negative limit")
	}
	if got := mustExecute(t, "", "iterate", root, "empty", "--repeat", "--format", "count"); got != "0\n" {
		t.Errorf("empty split count = %q, want 0", got)
	}
}

func TestCheckReportsCorruption(t *testing.T) {
	root := filepath.Join(t.TempDir(), "traces")
	mustExecute(t, "", "create", root, "-a", "trace:float32[3]", "-a", "label:int64[]", "--examples-per-shard", "2")
	mustExecute(t, fiveExamples, "import", root, "train")

	files := shardFiles(t, root, "train")
	data, err := os.ReadFile(files[1])
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0x40
	if err := os.WriteFile(files[1], data, 0o644); err != nil {
		t.Fatal(err)
	}

	result := execute(t, "", "check", root)
	var coder interface{ ExitCode() int }
	if !errors.As(result.err, &coder) || coder.ExitCode() != 1 {
		t.Fatalf("check error = %v, want exit code 1", result.err)
	}
	if !strings.Contains(result.stdout, "checksum") || !strings.HasSuffix(result.stdout, "1 issues\n") {
		t.Errorf("check output = %q", result.stdout)
	}

	result = execute(t, "", "check", root, "--json", "--concurrency", "1")
	var issues []issueResult
	if err := json.Unmarshal([]byte(result.stdout), &issues); err != nil {
		t.Fatalf("decoding issues: %v\n%s", err, result.stdout)
	}
	if len(issues) != 1 || issues[0].Kind != dataset.IssueChecksum || issues[0].Shard != filepath.Base(files[1]) {
		t.Errorf("issues = %+v", issues)
	}

	// Iteration stops at the corrupt shard.
	if result := execute(t, "", "iterate", root, "train", "--format", "count"); result.err == nil {
		t.Error("iterate read past a corrupt shard")
	}
}

func TestConfigFile(t *testing.T) {
	store := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "shardstore.yaml")
	content := "store:\n  root: " + store + "\nwrite:\n  compression: snappy\n  examples_per_shard: 3\nlog:\n  level: warn\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	mustExecute(t, "", "create", "relative", "-a", "x:int32[]", "--config", configPath)
	if _, err := os.Stat(filepath.Join(store, "relative", "index.cbor")); err != nil {
		t.Fatalf("relative dataset not created under store.root: %v", err)
	}

	output := mustExecute(t, "", "info", "relative", "--config", configPath)
	if !strings.Contains(output, "codec:     snappy") || !strings.Contains(output, "per shard: 3") {
		t.Errorf("info output:\n%s", output)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("write:\n  compression: brotli\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := execute(t, "", "info", "relative", "--config", bad)
	if result.err == nil || !strings.Contains(result.err.Error(), "invalid configuration") {
		t.Errorf("error = %v, want invalid configuration", result.err)
	}
}

func TestMetricsFile(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "traces")
	metricsPath := filepath.Join(dir, "metrics.prom")
	mustExecute(t, "", "create", root, "-a", "trace:float32[3]", "-a", "label:int64[]", "--examples-per-shard", "2")
	mustExecute(t, fiveExamples, "import", root, "train", "--metrics-file", metricsPath)

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("reading metrics file: %v", err)
	}
	for _, want := range []string{
		`shardstore_shards_written_total{split="train"} 3`,
		`shardstore_examples_written_total{split="train"} 5`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q:\n%s", want, data)
		}
	}
}

func TestCodecsAndVersion(t *testing.T) {
	output := mustExecute(t, "", "codecs")
	for _, want := range []string{"zstd", "bg4_lz4", "snappy", "cbor"} {
		if !strings.Contains(output, want) {
			t.Errorf("codecs output missing %q:\n%s", want, output)
		}
	}

	var codecs struct {
		Compressions []string `json:"compressions"`
		Encodings    []string `json:"encodings"`
	}
	if err := json.Unmarshal([]byte(mustExecute(t, "", "codecs", "--json")), &codecs); err != nil {
		t.Fatalf("decoding codecs: %v", err)
	}
	if !slices.Contains(codecs.Compressions, "none") || !slices.Equal(codecs.Encodings, []string{"raw", "cbor"}) {
		t.Errorf("codecs = %+v", codecs)
	}

	if output := mustExecute(t, "", "version"); !strings.HasPrefix(output, "shardstore ") {
		t.Errorf("version output = %q", output)
	}
}

func TestUnknownCommand(t *testing.T) {
	result := execute(t, "", "chek")
	if result.err == nil || !strings.Contains(result.err.Error(), `did you mean "check"`) {
		t.Errorf("error = %v, want suggestion for check", result.err)
	}
}

func TestExampleJSONRoundtrip(t *testing.T) {
	schema, err := attribute.NewSchema([]attribute.Spec{
		{Name: "grid", DType: attribute.Float64, Shape: []int{2, 2}},
		{Name: "mask", DType: attribute.Bool, Shape: []int{2}},
		{Name: "id", DType: attribute.Uint16},
	})
	if err != nil {
		t.Fatal(err)
	}

	example, err := decodeExampleJSON(schema, []byte(`{"grid":[[1.5,"NaN"],["-Inf",4]],"mask":[true,false],"id":7}`))
	if err != nil {
		t.Fatalf("decodeExampleJSON: %v", err)
	}
	line := string(appendExampleJSON(nil, schema, example))
	want := `{"grid":[1.5,"NaN","-Inf",4],"mask":[1,0],"id":7}` + "\n"
	if line != want {
		t.Errorf("appendExampleJSON = %q, want %q", line, want)
	}

	again, err := decodeExampleJSON(schema, []byte(line))
	if err != nil {
		t.Fatalf("decoding encoded line: %v", err)
	}
	if !again.Equal(example) {
		t.Error("example changed across a JSON round trip")
	}
}
