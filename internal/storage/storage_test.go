package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorePutObject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	uri, err := store.PutObject(t.Context(), "nedrug/2024/drug_list.xls", "application/vnd.ms-excel", []byte("payload"))
	if err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if !strings.HasPrefix(uri, "file://") {
		t.Errorf("uri = %q, want a file:// URI", uri)
	}
	data, err := os.ReadFile(filepath.Join(dir, "nedrug", "2024", "drug_list.xls"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("read back %q", data)
	}
}

func TestLocalStoreRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if _, err := store.PutObject(t.Context(), "  ", "", nil); err == nil {
		t.Fatal("expected an error for a blank path")
	}
}

func TestMemoryStoreIsolatesData(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	payload := []byte("original")
	uri, err := store.PutObject(t.Context(), "a/b", "text/plain", payload)
	if err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if uri != "mem://a/b" {
		t.Errorf("uri = %q", uri)
	}

	payload[0] = 'X'
	got, ok := store.Object("a/b")
	if !ok || string(got) != "original" {
		t.Errorf("stored object mutated: %q ok=%v", got, ok)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d", store.Len())
	}
}
