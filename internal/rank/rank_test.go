package rank

import (
	"errors"
	"math"
	"testing"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
)

func testIndex() *domain.Index {
	diag := float32(1 / math.Sqrt2)

	return domain.NewIndex(1, "test-model", []domain.IndexRecord{
		{ProductID: "p1", Name: "red shoe", Category: "shoes", Price: 4999, Vector: []float32{1, 0}},
		{ProductID: "p2", Name: "blue mug", Category: "kitchen", Price: 1299, Vector: []float32{0, 1}},
		{ProductID: "p3", Name: "red mug", Category: "kitchen", Price: 1399, Vector: []float32{diag, diag}},
	})
}

func TestRankOrdersByDescendingScore(t *testing.T) {
	results, err := Rank([]float32{1, 0}, testIndex(), 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	wantOrder := []string{"p1", "p3", "p2"}
	for i, want := range wantOrder {
		if results[i].ProductID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, results[i].ProductID)
		}
	}

	if math.Abs(float64(results[0].Score)-1) > 1e-5 {
		t.Errorf("expected top score ~1, got %f", results[0].Score)
	}
}

func TestRankAppliesTopKAndMinScore(t *testing.T) {
	diag := float32(1 / math.Sqrt2)

	results, err := Rank([]float32{diag, diag}, testIndex(), 2, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].ProductID != "p3" {
		t.Errorf("expected p3 first, got %s", results[0].ProductID)
	}

	// p1 и p2 имеют одинаковый score, порядок добавления решает
	if results[1].ProductID != "p1" {
		t.Errorf("expected p1 second on tie, got %s", results[1].ProductID)
	}
}

func TestRankMinScoreFiltersAll(t *testing.T) {
	results, err := Rank([]float32{1, 0}, testIndex(), 10, 1.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 0 {
		t.Fatalf("expected no results above min score 1.1, got %d", len(results))
	}
}

func TestRankStableTieOrder(t *testing.T) {
	idx := domain.NewIndex(1, "test-model", []domain.IndexRecord{
		{ProductID: "a", Vector: []float32{1, 0}},
		{ProductID: "b", Vector: []float32{1, 0}},
		{ProductID: "c", Vector: []float32{1, 0}},
	})

	results, err := Rank([]float32{1, 0}, idx, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, want := range []string{"a", "b", "c"} {
		if results[i].ProductID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, results[i].ProductID)
		}
	}
}

func TestRankInvalidTopK(t *testing.T) {
	for _, topK := range []int{0, -1} {
		if _, err := Rank([]float32{1, 0}, testIndex(), topK, 0); !errors.Is(err, e.ErrInvalidParameter) {
			t.Errorf("topK=%d: expected ErrInvalidParameter, got %v", topK, err)
		}
	}
}

func TestRankEmptyIndex(t *testing.T) {
	results, err := Rank([]float32{1, 0}, domain.NewIndex(0, "", nil), 5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 0 {
		t.Fatalf("expected empty results, got %d", len(results))
	}
}

func TestRankDimensionMismatch(t *testing.T) {
	idx := domain.NewIndex(1, "test-model", []domain.IndexRecord{
		{ProductID: "p1", Vector: []float32{1, 0, 0}},
	})

	if _, err := Rank([]float32{1, 0}, idx, 5, 0); !errors.Is(err, e.ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex, got %v", err)
	}
}
