package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/cortex-ml/cortex/internal/nn"
)

// Save writes the network's configuration and parameters to path. The file
// is written to a temporary sibling first and renamed into place, so a
// crash mid-write never leaves a half-written model at path.
func Save(net *nn.Network, path string) error {
	if net == nil {
		return nn.ErrNilInput
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("serialization: create: %w", err)
	}

	if err := write(net, f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("serialization: close: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("serialization: rename: %w", err)
	}
	return nil
}

func write(net *nn.Network, f *os.File) error {
	cfg := net.Config()
	layers := net.Layers()

	h := header{Version: formatVersion, Config: cfg}
	for _, l := range layers {
		h.Layers = append(h.Layers, layerDims{In: l.InSize, Out: l.OutSize})
	}
	headerBytes, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("serialization: header: %w", err)
	}

	bw := bufio.NewWriter(f)
	if _, err := bw.WriteString(magic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(headerBytes))); err != nil {
		return err
	}

	// Header and payload both feed the checksum.
	sum := crc32.New(castagnoli)
	body := io.MultiWriter(bw, sum)

	if _, err := body.Write(headerBytes); err != nil {
		return err
	}
	for _, l := range layers {
		if err := writeFloats(body, l.Weights); err != nil {
			return err
		}
		if err := writeFloats(body, l.Biases); err != nil {
			return err
		}
		if cfg.BatchNorm {
			for _, buf := range [][]float64{l.BNMean, l.BNVar, l.BNScale, l.BNShift} {
				if err := writeFloats(body, buf); err != nil {
					return err
				}
			}
		}
	}

	if err := binary.Write(bw, binary.LittleEndian, sum.Sum32()); err != nil {
		return err
	}
	return bw.Flush()
}

func writeFloats(w io.Writer, xs []float64) error {
	return binary.Write(w, binary.LittleEndian, xs)
}
