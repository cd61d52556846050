// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shard

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Checksum is a 32-byte keyed BLAKE3 digest.
type Checksum [32]byte

// Domain keys separate the two digests a shard carries, so a record
// stream stored uncompressed does not produce equal checksums in both
// header fields. Changing either key invalidates every existing
// shard. Each key is the ASCII domain name, zero-padded.
var (
	recordDomainKey  = domainKey("bureau.shardstore.records")
	payloadDomainKey = domainKey("bureau.shardstore.payload")
)

func domainKey(name string) (key [32]byte) {
	copy(key[:], name)
	return key
}

// ComputeChecksum hashes an uncompressed record stream.
func ComputeChecksum(stream []byte) Checksum {
	return keyedSum(&recordDomainKey, stream)
}

// ComputePayloadChecksum hashes a shard payload as stored on disk.
func ComputePayloadChecksum(payload []byte) Checksum {
	return keyedSum(&payloadDomainKey, payload)
}

func keyedSum(key *[32]byte, data []byte) Checksum {
	// NewKeyed only fails for a key that is not 32 bytes long.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("shard: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var checksum Checksum
	copy(checksum[:], hasher.Sum(nil))
	return checksum
}

// String returns the lowercase hex form used in indexes and logs.
func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// ParseChecksum parses the 64-character hex form.
func ParseChecksum(text string) (Checksum, error) {
	var checksum Checksum
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return checksum, fmt.Errorf("parsing shard checksum: %w", err)
	}
	if len(decoded) != len(checksum) {
		return checksum, fmt.Errorf("shard checksum is %d bytes, want %d", len(decoded), len(checksum))
	}
	copy(checksum[:], decoded)
	return checksum, nil
}
