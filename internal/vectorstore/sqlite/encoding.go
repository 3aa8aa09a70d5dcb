package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"

	"gostrag/internal/domain"
)

// Vectors are stored as a little-endian sequence of IEEE 754 float32
// values with no length prefix; the dimension is derived from the BLOB
// size on decode.

func encodeVector(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: invalid embedding blob length %d", domain.ErrValidation, len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
