package sample

import (
	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// Float16Logits widens IEEE half-precision logit bits to float32.
func Float16Logits(bits []uint16) []float32 {
	out := make([]float32, len(bits))
	for i, b := range bits {
		out[i] = float16.Frombits(b).Float32()
	}
	return out
}

// BFloat16Logits widens bfloat16 logit bits to float32.
func BFloat16Logits(bits []uint16) []float32 {
	out := make([]float32, len(bits))
	for i, b := range bits {
		out[i] = bfloat16.ToFloat32(bfloat16.BF16(b))
	}
	return out
}
