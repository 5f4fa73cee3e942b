package utils

import (
	"encoding/binary"
	"math"
)

// BytesToFloat32 converte 4 bytes big-endian (formato IEEE 754) para float32.
// É o formato REAL dos blocos de dados S7.
func BytesToFloat32(bytes []byte) float32 {
	bits := binary.BigEndian.Uint32(bytes)
	return math.Float32frombits(bits)
}
