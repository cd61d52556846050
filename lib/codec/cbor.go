// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

// maxArrayElements bounds arrays accepted by the decoder. A shard
// record holds one element per schema attribute and an index holds
// one entry per shard; both stay far below this.
const maxArrayElements = 1 << 24

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Types implementing encoding.TextMarshaler (compress.Kind,
	// shard.Encoding, attribute.DType) are stored as their names, so
	// an index reads "zstd" rather than 4.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		MaxArrayElements: maxArrayElements,
		// Mirrors TextMarshaler above: names decode through
		// UnmarshalText and unknown names are rejected there.
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v. Trailing bytes after the first
// data item are an error.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder is a CBOR stream encoder.
type Encoder = cbor.Encoder

// NewEncoder returns a deterministic CBOR encoder writing to w. Each
// Encode call writes one complete data item, byte-identical to
// Marshal of the same value.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}
