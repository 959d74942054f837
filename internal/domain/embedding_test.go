package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
)

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	if err := Normalize(v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("expected [0.6 0.8], got %v", v)
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("expected unit norm, got %f", sum)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	if err := Normalize([]float32{0, 0, 0}); !errors.Is(err, e.ErrZeroVector) {
		t.Fatalf("expected ErrZeroVector, got %v", err)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	v := []float32{1, 1}
	if err := Normalize(v); err != nil {
		t.Fatal(err)
	}
	first := append([]float32(nil), v...)

	if err := Normalize(v); err != nil {
		t.Fatal(err)
	}

	for i := range v {
		if math.Abs(float64(v[i]-first[i])) > 1e-6 {
			t.Errorf("normalization of a unit vector changed component %d: %f vs %f", i, v[i], first[i])
		}
	}
}
