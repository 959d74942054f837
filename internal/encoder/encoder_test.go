package encoder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/usecase"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
)

type fakeML struct {
	vector []float32
	model  string
	err    error
}

func (f *fakeML) VectorizeImage(ctx context.Context, imageData []byte) (*usecase.VectorizeRes, error) {
	if f.err != nil {
		return nil, f.err
	}
	return usecase.NewVectorizeRes(append([]float32(nil), f.vector...), f.model), nil
}

func testImage() *domain.DecodedImage {
	return domain.NewDecodedImage([]byte("payload"), "png", 2, 2)
}

func TestEncodeNormalizesVector(t *testing.T) {
	svc := NewService(&fakeML{vector: []float32{3, 4}, model: "clip-v1"}, 2)

	res, err := svc.Encode(context.Background(), testImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(float64(res.Vector[0])-0.6) > 1e-6 || math.Abs(float64(res.Vector[1])-0.8) > 1e-6 {
		t.Errorf("expected normalized [0.6 0.8], got %v", res.Vector)
	}

	if res.ModelVersion != "clip-v1" {
		t.Errorf("model version lost: %s", res.ModelVersion)
	}
}

func TestEncodeRejectsWrongDimension(t *testing.T) {
	svc := NewService(&fakeML{vector: []float32{1, 2, 3}}, 2)

	_, err := svc.Encode(context.Background(), testImage())
	if !errors.Is(err, e.ErrEncodingFailure) {
		t.Fatalf("expected ErrEncodingFailure, got %v", err)
	}
}

func TestEncodeRejectsZeroVector(t *testing.T) {
	svc := NewService(&fakeML{vector: []float32{0, 0}}, 2)

	_, err := svc.Encode(context.Background(), testImage())
	if !errors.Is(err, e.ErrEncodingFailure) {
		t.Fatalf("expected ErrEncodingFailure, got %v", err)
	}
}

func TestEncodeWrapsMLFailure(t *testing.T) {
	svc := NewService(&fakeML{err: fmt.Errorf("model unavailable")}, 2)

	_, err := svc.Encode(context.Background(), testImage())
	if !errors.Is(err, e.ErrEncodingFailure) {
		t.Fatalf("expected ErrEncodingFailure, got %v", err)
	}
}
