package atomq

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPersister_WritesDecodableSnapshot(t *testing.T) {
	fc := newFakeClient()
	fc.dehydrated = DehydratedState{
		Queries: []DehydratedQuery{{
			QueryKey:      []any{"users", float64(1)},
			Data:          map[string]any{"name": "ada"},
			DataUpdatedAt: time.Unix(1700000000, 0).UTC(),
		}},
	}
	path := filepath.Join(t.TempDir(), "snapshot.json")

	p := NewPersister(fc, path)
	if err := p.Persist(context.Background()); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if fc.dehydrateCalls != 1 {
		t.Errorf("expected 1 dehydrate call, got %d", fc.dehydrateCalls)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var got DehydratedState
	if err := (JSONCodec{}).Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(fc.dehydrated, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

// A persisted snapshot feeds a Hydrator straight back: the round trip
// across codec, file, and client must preserve the cache contents.
func TestPersister_RoundTripsThroughHydrator(t *testing.T) {
	src := newFakeClient()
	src.dehydrated = DehydratedState{
		Queries: []DehydratedQuery{{
			QueryKey: []any{"users", "u1"},
			Data:     map[string]any{"name": "ada"},
		}},
	}
	path := filepath.Join(t.TempDir(), "snapshot.yaml")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := NewPersister(src, path).Codec(YAMLCodec{}).Persist(ctx); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	dst := newFakeClient()
	h := NewHydrator(NewFileSource(path), dst).Codec(YAMLCodec{}).SyncMode()
	if err := h.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(dst.hydrated) != 1 {
		t.Fatalf("expected 1 hydrated state, got %d", len(dst.hydrated))
	}
	if diff := cmp.Diff(src.dehydrated.Queries, dst.hydrated[0].Queries); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPersister_DehydrateFailure(t *testing.T) {
	fc := newFakeClient()
	boom := errors.New("cache locked")
	fc.dehydrateErr = boom
	path := filepath.Join(t.TempDir(), "snapshot.json")

	err := NewPersister(fc, path).Persist(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected dehydrate error, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("no file should be written when dehydration fails")
	}
}

func TestPersister_ReplacesExistingSnapshot(t *testing.T) {
	fc := newFakeClient()
	fc.dehydrated = DehydratedState{
		Queries: []DehydratedQuery{{QueryKey: []any{"users", float64(2)}}},
	}
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := NewPersister(fc, path).Persist(context.Background()); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	var got DehydratedState
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if err := (JSONCodec{}).Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(got.Queries) != 1 {
		t.Fatalf("expected 1 query in snapshot, got %d", len(got.Queries))
	}
	if _, statErr := os.Stat(path + ".tmp"); !os.IsNotExist(statErr) {
		t.Error("temp file should not remain after a successful write")
	}
}
