// Package serialization persists built networks to disk and restores them.
//
// The on-disk layout is:
//
//	magic "CTX1" (4 bytes)
//	header length (uint32 little-endian)
//	header (JSON: format version, network config, layer dims)
//	payload (per layer: weights, biases, then batch-norm state if enabled,
//	         as little-endian float64)
//	checksum (uint32 little-endian, CRC-32C over header and payload)
package serialization

import (
	"errors"
	"hash/crc32"

	"github.com/cortex-ml/cortex/internal/nn"
)

const (
	magic         = "CTX1"
	formatVersion = 1
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

var (
	// ErrBadMagic means the file does not start with the expected magic.
	ErrBadMagic = errors.New("serialization: bad magic")
	// ErrVersion means the format version is not supported.
	ErrVersion = errors.New("serialization: unsupported version")
	// ErrChecksum means the stored checksum does not match the contents.
	ErrChecksum = errors.New("serialization: checksum mismatch")
	// ErrCorrupt means the file is truncated or structurally invalid.
	ErrCorrupt = errors.New("serialization: corrupt file")
)

// layerDims records one layer's shape in the header so Load can validate
// the payload before copying it.
type layerDims struct {
	In  int `json:"in"`
	Out int `json:"out"`
}

type header struct {
	Version int         `json:"version"`
	Config  nn.Config   `json:"config"`
	Layers  []layerDims `json:"layers"`
}

// payloadFloats returns how many float64 values one layer contributes.
func payloadFloats(d layerDims, batchNorm bool) int {
	n := d.In*d.Out + d.Out
	if batchNorm {
		n += 4 * d.Out
	}
	return n
}
