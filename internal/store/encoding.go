package store

import (
	"encoding/binary"
	"math"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// serializeVector encodes a float32 vector in the layout sqlite-vec's vec0
// virtual table expects for its BLOB column.
func serializeVector(v []float32) ([]byte, error) {
	return sqlitevec.SerializeFloat32(v)
}

// deserializeVector decodes vec0's BLOB layout back into a float32 slice: a
// flat little-endian array, 4 bytes per dimension.
func deserializeVector(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
