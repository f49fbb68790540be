package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/cortex-ml/cortex/internal/memory"
	"github.com/cortex-ml/cortex/internal/nn"
)

// Load reads a model written by Save and rebuilds it. The network's buffers
// are allocated through tracker (nil means the process default), exactly as
// a fresh Build would, then overwritten with the stored parameters.
func Load(path string, tracker *memory.Tracker) (*nn.Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("serialization: read: %w", err)
	}

	h, payload, err := parse(raw)
	if err != nil {
		return nil, err
	}

	net, err := nn.Build(h.Config, tracker)
	if err != nil {
		return nil, fmt.Errorf("serialization: rebuild: %w", err)
	}

	if err := restore(net, h, payload); err != nil {
		net.Destroy()
		return nil, err
	}
	return net, nil
}

// parse validates framing and checksum and splits out the header and
// payload.
func parse(raw []byte) (*header, []byte, error) {
	// Minimum: magic + header length + checksum.
	if len(raw) < len(magic)+4+4 {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(raw))
	}
	if string(raw[:len(magic)]) != magic {
		return nil, nil, ErrBadMagic
	}

	headerLen := int(binary.LittleEndian.Uint32(raw[len(magic):]))
	bodyStart := len(magic) + 4
	sumStart := len(raw) - 4
	if headerLen < 0 || bodyStart+headerLen > sumStart {
		return nil, nil, fmt.Errorf("%w: header length %d", ErrCorrupt, headerLen)
	}

	body := raw[bodyStart:sumStart]
	stored := binary.LittleEndian.Uint32(raw[sumStart:])
	if crc32.Checksum(body, castagnoli) != stored {
		return nil, nil, ErrChecksum
	}

	var h header
	if err := json.Unmarshal(body[:headerLen], &h); err != nil {
		return nil, nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if h.Version != formatVersion {
		return nil, nil, fmt.Errorf("%w: version %d", ErrVersion, h.Version)
	}

	var want int
	for _, d := range h.Layers {
		want += payloadFloats(d, h.Config.BatchNorm)
	}
	payload := body[headerLen:]
	if len(payload) != want*8 {
		return nil, nil, fmt.Errorf("%w: payload %d bytes, want %d", ErrCorrupt, len(payload), want*8)
	}

	return &h, payload, nil
}

// restore copies stored parameters into a freshly built network, checking
// that every layer's shape matches the header.
func restore(net *nn.Network, h *header, payload []byte) error {
	layers := net.Layers()
	if len(layers) != len(h.Layers) {
		return fmt.Errorf("%w: %d layers, header says %d", ErrCorrupt, len(layers), len(h.Layers))
	}

	r := bytes.NewReader(payload)
	for i, l := range layers {
		d := h.Layers[i]
		if l.InSize != d.In || l.OutSize != d.Out {
			return fmt.Errorf("%w: layer %d is %dx%d, header says %dx%d",
				ErrCorrupt, i, l.OutSize, l.InSize, d.Out, d.In)
		}
		if err := binary.Read(r, binary.LittleEndian, l.Weights); err != nil {
			return fmt.Errorf("%w: layer %d weights: %v", ErrCorrupt, i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, l.Biases); err != nil {
			return fmt.Errorf("%w: layer %d biases: %v", ErrCorrupt, i, err)
		}
		if h.Config.BatchNorm {
			for _, buf := range [][]float64{l.BNMean, l.BNVar, l.BNScale, l.BNShift} {
				if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
					return fmt.Errorf("%w: layer %d batch-norm state: %v", ErrCorrupt, i, err)
				}
			}
		}
	}
	return nil
}
