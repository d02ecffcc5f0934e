package analysis

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"soundcheck/internal/services"
)

// LoadRaw reads little-endian float32 samples from a raw file, the exchange
// format jobs reference on disk. A file whose size is not a multiple of four
// bytes is malformed.
func LoadRaw(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sample file: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, services.Wrap(services.ErrValidation, "analysis", "load",
			fmt.Sprintf("sample file %s has %d trailing bytes", path, len(data)%4), nil)
	}
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples, nil
}

// WriteRaw writes samples in the raw little-endian float32 exchange format.
func WriteRaw(path string, samples []float32) error {
	data := make([]byte, len(samples)*4)
	for i, sample := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(sample))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sample file: %w", err)
	}
	return nil
}
