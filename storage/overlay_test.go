package storage

import (
	"bytes"
	"testing"
)

func TestOverlayBuffersUntilCommit(t *testing.T) {
	base := NewMemDB()
	if err := base.Put([]byte("a"), []byte("base")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	overlay := NewOverlay(base)
	if err := overlay.Put([]byte("a"), []byte("new")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := overlay.Put([]byte("b"), []byte("added")); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Reads see buffered writes, falling through for untouched keys.
	got, err := overlay.Get([]byte("a"))
	if err != nil || !bytes.Equal(got, []byte("new")) {
		t.Fatalf("overlay read = %q err=%v", got, err)
	}

	// The base is untouched until Commit.
	got, err = base.Get([]byte("a"))
	if err != nil || !bytes.Equal(got, []byte("base")) {
		t.Fatalf("base read before commit = %q err=%v", got, err)
	}
	got, err = base.Get([]byte("b"))
	if err != nil || got != nil {
		t.Fatalf("base leaked buffered key: %q err=%v", got, err)
	}

	if err := overlay.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, err = base.Get([]byte("a"))
	if err != nil || !bytes.Equal(got, []byte("new")) {
		t.Fatalf("base read after commit = %q err=%v", got, err)
	}
	got, err = base.Get([]byte("b"))
	if err != nil || !bytes.Equal(got, []byte("added")) {
		t.Fatalf("base read after commit = %q err=%v", got, err)
	}
}

func TestOverlayDiscard(t *testing.T) {
	base := NewMemDB()
	overlay := NewOverlay(base)
	if err := overlay.Put([]byte("x"), []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Dropping the overlay without Commit leaves the base clean.
	got, err := base.Get([]byte("x"))
	if err != nil || got != nil {
		t.Fatalf("discarded write reached base: %q err=%v", got, err)
	}
}

func TestOverlayLastWriteWins(t *testing.T) {
	base := NewMemDB()
	overlay := NewOverlay(base)
	_ = overlay.Put([]byte("k"), []byte("1"))
	_ = overlay.Put([]byte("k"), []byte("2"))
	if err := overlay.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, err := base.Get([]byte("k"))
	if err != nil || !bytes.Equal(got, []byte("2")) {
		t.Fatalf("base = %q err=%v", got, err)
	}
}

func TestMemDBMissingKey(t *testing.T) {
	db := NewMemDB()
	got, err := db.Get([]byte("missing"))
	if err != nil || got != nil {
		t.Fatalf("missing key = %q err=%v", got, err)
	}
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	value := []byte("abc")
	if err := db.Put([]byte("k"), value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'x'
	got, err := db.Get([]byte("k"))
	if err != nil || !bytes.Equal(got, []byte("abc")) {
		t.Fatalf("stored value aliased caller buffer: %q err=%v", got, err)
	}
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get([]byte("k"))
	if err != nil || !bytes.Equal(got, []byte("v")) {
		t.Fatalf("get = %q err=%v", got, err)
	}
	got, err = db.Get([]byte("absent"))
	if err != nil || got != nil {
		t.Fatalf("absent key = %q err=%v", got, err)
	}
}
