package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceScore(t *testing.T) {
	assert.Equal(t, 1.0, DistanceScore(0))
	assert.Equal(t, 0.5, DistanceScore(1))
	assert.Equal(t, 1.0, DistanceScore(-0.2))

	// Monotonic: closer candidates always score higher.
	prev := DistanceScore(0)
	for _, d := range []float64{0.1, 0.5, 2, 10, 1000} {
		s := DistanceScore(d)
		assert.Less(t, s, prev)
		assert.Greater(t, s, 0.0)
		prev = s
	}
}

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"unit apart", []float32{0, 0}, []float32{1, 0}, 1},
		{"pythagoras", []float32{0, 0}, []float32{3, 4}, 25},
		{"longer a", []float32{1, 2}, []float32{1}, 4},
		{"longer b", []float32{0}, []float32{0, 3}, 9},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SquaredL2(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, SquaredL2(tt.b, tt.a), 1e-9)
		})
	}
}
