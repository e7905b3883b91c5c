// Copyright © 2024 Galvanized Logic Inc.

// Package hull implements the convex-hull cache: on-disk binary cache
// files keyed by model and settings hash, an in-memory TTL-evicting map
// of resolved or in-flight hull sets, and the V-HACD-or-single-hull
// decomposition fallback invoked on a cache miss.
package hull

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// cachefile.go implements the on-disk format spec §6 "Collision cache
// files" defines byte-for-byte: a fixed 40-byte header (magic, two
// 128-bit hashes, payload size) followed by the serialized hull-set
// payload. Grounded on physics/collider.go's collider_Convex_Hull
// layout for what the payload actually serializes.

// Magic is the fixed header value every cache file must start with.
const Magic uint32 = 0xC044

// headerSize is the byte length of the fixed header (spec §6 table).
const headerSize = 4 + 16 + 16 + 4

// Hash128 is a 128-bit content hash (model hash or settings hash).
// SPEC_FULL.md §D decides hashes are carried as two uint64 halves
// rather than a [16]byte array so construction from two independent
// hash computations (model content, settings struct) never needs an
// intermediate byte-slice copy.
type Hash128 struct {
	Hi, Lo uint64
}

func (h Hash128) equal(o Hash128) bool { return h.Hi == o.Hi && h.Lo == o.Lo }

// Header is the fixed portion of a cache file.
type Header struct {
	Magic        uint32
	ModelHash    Hash128
	SettingsHash Hash128
	BufferSize   uint32
}

// ErrBadMagic, ErrBadSize and ErrHashMismatch are the three rejection
// reasons spec §6 requires ("a reader MUST reject files whose magic,
// size, or either hash disagrees").
var (
	ErrBadMagic     = errors.New("hull: bad cache file magic")
	ErrBadSize      = errors.New("hull: cache file size does not match header")
	ErrHashMismatch = errors.New("hull: cache file hash mismatch")
)

// WriteCacheFile writes header+payload in the on-disk layout.
func WriteCacheFile(w io.Writer, modelHash, settingsHash Hash128, payload []byte) error {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint64(buf[4:12], modelHash.Hi)
	binary.LittleEndian.PutUint64(buf[12:20], modelHash.Lo)
	binary.LittleEndian.PutUint64(buf[20:28], settingsHash.Hi)
	binary.LittleEndian.PutUint64(buf[28:36], settingsHash.Lo)
	binary.LittleEndian.PutUint32(buf[36:40], uint32(len(payload)))
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("hull: write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("hull: write payload: %w", err)
	}
	return nil
}

// ReadCacheFile reads and validates a cache file against the expected
// model and settings hashes, per spec §6's "valid iff both hashes match
// exactly." Returns the payload only when every check passes.
func ReadCacheFile(r io.Reader, wantModelHash, wantSettingsHash Hash128) ([]byte, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("hull: read header: %w", err)
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != Magic {
		return nil, ErrBadMagic
	}
	h := Header{
		Magic:        magic,
		ModelHash:    Hash128{Hi: binary.LittleEndian.Uint64(buf[4:12]), Lo: binary.LittleEndian.Uint64(buf[12:20])},
		SettingsHash: Hash128{Hi: binary.LittleEndian.Uint64(buf[20:28]), Lo: binary.LittleEndian.Uint64(buf[28:36])},
		BufferSize:   binary.LittleEndian.Uint32(buf[36:40]),
	}
	if !h.ModelHash.equal(wantModelHash) || !h.SettingsHash.equal(wantSettingsHash) {
		return nil, ErrHashMismatch
	}
	payload := make([]byte, h.BufferSize)
	n, err := io.ReadFull(r, payload)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("hull: read payload: %w", err)
	}
	if uint32(n) != h.BufferSize {
		return nil, ErrBadSize
	}
	return payload, nil
}
