package vector

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

func TestFlatIndexSearchOrdering(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	ctx := context.Background()
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{0.8, 0.6, 0},
	}
	if err := idx.Add(ctx, vectors); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 4 {
		t.Fatalf("size: got %d, want 4", idx.Size())
	}

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Fatalf("hits: got %d, want 3", len(hits))
	}
	if hits[0].Row != 0 {
		t.Errorf("top row: got %d, want 0", hits[0].Row)
	}
	if math.Abs(hits[0].Score-1.0) > 1e-6 {
		t.Errorf("top score: got %f, want 1.0", hits[0].Score)
	}
	if hits[1].Row != 3 {
		t.Errorf("second row: got %d, want 3", hits[1].Row)
	}
	if math.Abs(hits[1].Score-0.8) > 1e-6 {
		t.Errorf("second score: got %f, want 0.8", hits[1].Score)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not sorted descending: %v", hits)
		}
	}
}

func TestFlatIndexSearchEmpty(t *testing.T) {
	idx, err := NewFlatIndex(4)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	hits, err := idx.Search(context.Background(), []float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("hits on empty index: got %d, want 0", len(hits))
	}
}

func TestFlatIndexKLargerThanSize(t *testing.T) {
	idx, err := NewFlatIndex(2)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()
	if err := idx.Add(ctx, [][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatal(err)
	}
	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("hits: got %d, want 2", len(hits))
	}
}

func TestFlatIndexDimensionMismatch(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()
	if err := idx.Add(ctx, [][]float32{{1, 0}}); err == nil {
		t.Error("expected error adding 2-dim vector to 3-dim index")
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Error("expected error searching with 2-dim query in 3-dim index")
	}
}

func TestFlatIndexInvalidDimension(t *testing.T) {
	if _, err := NewFlatIndex(0); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestFlatIndexReset(t *testing.T) {
	idx, err := NewFlatIndex(2)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if err := idx.Add(context.Background(), [][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}
	idx.Reset()
	if idx.Size() != 0 {
		t.Errorf("size after reset: got %d, want 0", idx.Size())
	}
	if idx.Dimensions() != 2 {
		t.Errorf("dimensions after reset: got %d, want 2", idx.Dimensions())
	}
}

func TestFlatIndexSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")
	ctx := context.Background()

	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}}
	if err := idx.Add(ctx, vectors); err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	idx.Close()

	loaded, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer loaded.Close()
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("size after load: got %d, want 2", loaded.Size())
	}
	hits, err := loaded.Search(ctx, []float32{0, 1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Row != 1 {
		t.Errorf("hits after load: got %v", hits)
	}
}

func TestFlatIndexLoadMissingFile(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	// A missing index file is a fresh start, not an error.
	if err := idx.Load(filepath.Join(t.TempDir(), "absent.bin")); err != nil {
		t.Errorf("load of missing file: got %v, want nil", err)
	}
	if idx.Size() != 0 {
		t.Errorf("size: got %d, want 0", idx.Size())
	}
}
