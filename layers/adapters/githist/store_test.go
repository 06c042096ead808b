package githist

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/tacmap/layerstore/layers"
)

func openStore(t *testing.T, dir string, opts ...Option) *layers.Store {
	t.Helper()
	adapter, err := Open(dir, opts...)
	if err != nil {
		t.Fatalf("Open adapter failed: %v", err)
	}
	store, err := layers.Open(adapter)
	if err != nil {
		t.Fatalf("Open store failed: %v", err)
	}
	return store
}

// commitMessages returns the repository's commit messages, oldest first.
func commitMessages(t *testing.T, dir string) []string {
	t.Helper()
	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("reopen repository failed: %v", err)
	}
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil
		}
		t.Fatalf("read HEAD failed: %v", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}

	var messages []string
	err = iter.ForEach(func(c *object.Commit) error {
		messages = append(messages, c.Message)
		return nil
	})
	if err != nil {
		t.Fatalf("walk log failed: %v", err)
	}
	// Log iterates newest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages
}

func TestFlush_WritesFileAndCommits(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := openStore(t, dir)
	store.AddLayer("recon", "Recon Overlay")
	store.AddFeature("recon", "unit-7", layers.Document{"sidc": "SFGPUCI"})
	if err := store.Commands().Commit("recon").Wait(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "recon"+FileExt))
	if err != nil {
		t.Fatalf("layer file missing: %v", err)
	}
	var layer layers.Layer
	if err := json.Unmarshal(data, &layer); err != nil {
		t.Fatalf("layer file not valid JSON: %v", err)
	}
	if layer.Name != "Recon Overlay" || len(layer.Features) != 1 {
		t.Errorf("layer file = %#v", layer)
	}

	messages := commitMessages(t, dir)
	if len(messages) == 0 {
		t.Fatal("no commits recorded")
	}
	for _, msg := range messages {
		if msg != "persisted layer id recon" {
			t.Errorf("unexpected commit message %q", msg)
		}
	}
}

// Issuing Commit twice with no intervening mutation performs exactly one
// commit.
func TestFlush_IdempotentWithoutMutation(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := openStore(t, dir)
	store.AddLayer("a", "Alpha")

	if err := store.Commands().Commit("a").Wait(ctx); err != nil {
		t.Fatalf("first Commit failed: %v", err)
	}
	before := len(commitMessages(t, dir))

	if err := store.Commands().Commit("a").Wait(ctx); err != nil {
		t.Fatalf("second Commit failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	after := len(commitMessages(t, dir))
	if after != before {
		t.Errorf("redundant Commit produced %d new commit(s)", after-before)
	}
}

func TestDeleteLayer_RemovesFileAndCommits(t *testing.T) {
	dir := t.TempDir()

	store := openStore(t, dir)
	store.AddLayer("a", "Alpha")
	store.DeleteLayer("a")
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "a"+FileExt)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("layer file still present after delete: %v", err)
	}

	var sawDelete bool
	for _, msg := range commitMessages(t, dir) {
		if msg == "deleted layer a" {
			sawDelete = true
		}
	}
	if !sawDelete {
		t.Error("no 'deleted layer a' commit recorded")
	}
}

func TestAddLayer_NameEvictionRemovesOldFile(t *testing.T) {
	dir := t.TempDir()

	store := openStore(t, dir)
	store.AddLayer("id1", "X")
	store.AddLayer("id2", "X")
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "id1"+FileExt)); !errors.Is(err, os.ErrNotExist) {
		t.Error("evicted layer's file still present")
	}
	if _, err := os.Stat(filepath.Join(dir, "id2"+FileExt)); err != nil {
		t.Errorf("surviving layer's file missing: %v", err)
	}
}

func TestReplay_AssemblesLayersFromFiles(t *testing.T) {
	dir := t.TempDir()

	store := openStore(t, dir)
	store.AddLayer("a", "Alpha")
	store.AddFeature("a", "f1", layers.Document{"k": "v"})
	store.AddLayer("b", "Bravo")
	store.HideLayer("b")
	want := store.Snapshot()
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := openStore(t, dir)
	defer reopened.Close()

	if got := reopened.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("replayed state = %#v, want %#v", got, want)
	}
}

func TestReplay_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	store := openStore(t, dir)
	defer store.Close()

	if got := len(store.Snapshot()); got != 0 {
		t.Errorf("empty store replayed %d layers, want 0", got)
	}
}

func TestRecordEvent_IgnoresSentinels(t *testing.T) {
	adapter, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer adapter.Close()

	for _, kind := range []layers.Kind{layers.KindSnapshot, layers.KindReplayReady} {
		result := adapter.RecordEvent(layers.Event{Kind: kind})
		select {
		case <-result.Done():
		default:
			t.Fatalf("%s result not completed immediately", kind)
		}
	}
}
