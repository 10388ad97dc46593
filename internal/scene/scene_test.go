package scene

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

func open(t *testing.T) *Repository {
	t.Helper()
	r, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "scene.db"))
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func point(id string, lon, lat float64) c3ml.Descriptor {
	return c3ml.Descriptor{ID: id, Type: c3ml.TypePoint, Coordinates: [][]float64{{lon, lat}}}
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	r := open(t)

	if err := r.Save(ctx, point("a", 1, 2)); err != nil {
		t.Fatal(err)
	}
	if err := r.Save(ctx, point("b", 3, 4)); err != nil {
		t.Fatal(err)
	}
	// Replacing keeps the position.
	if err := r.Save(ctx, point("a", 5, 6)); err != nil {
		t.Fatal(err)
	}

	d, err := r.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if d.Coordinates[0][0] != 5 {
		t.Errorf("Expected the replaced descriptor, got %v", d.Coordinates)
	}

	ds, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 2 || ds[0].ID != "a" || ds[1].ID != "b" {
		t.Errorf("Expected [a b], got %v", c3ml.Document{Entities: ds}.IDs())
	}

	if _, err := r.Get(ctx, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
	if err := r.Save(ctx, c3ml.Descriptor{Type: c3ml.TypePoint}); !errors.Is(err, apperror.ErrDeveloper) {
		t.Errorf("Expected developer error without id, got %v", err)
	}
}

func TestDeleteAndReplace(t *testing.T) {
	ctx := context.Background()
	r := open(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := r.Save(ctx, point(id, 0, 0)); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Delete(ctx, "b", "missing"); err != nil {
		t.Fatal(err)
	}
	if n, _ := r.Count(ctx); n != 2 {
		t.Errorf("Expected 2 stored, got %d", n)
	}

	if err := r.Replace(ctx, []c3ml.Descriptor{point("z", 1, 1), point("y", 2, 2)}); err != nil {
		t.Fatal(err)
	}
	doc, err := r.Document(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ids := doc.IDs(); len(ids) != 2 || ids[0] != "z" || ids[1] != "y" {
		t.Errorf("Expected [z y], got %v", ids)
	}
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scene.db")

	r, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Save(ctx, point("kept", 1, 1)); err != nil {
		t.Fatal(err)
	}
	r.Close()

	r, err = Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.Get(ctx, "kept"); err != nil {
		t.Errorf("Expected descriptor to survive reopening, got %v", err)
	}
}
