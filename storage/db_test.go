package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBMissingKey(t *testing.T) {
	db := NewMemDB()
	t.Cleanup(db.Close)

	_, err := db.Get([]byte("missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemDBWriteBatch(t *testing.T) {
	db := NewMemDB()
	t.Cleanup(db.Close)
	if err := db.Put([]byte("stale"), []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}

	batch := new(Batch)
	batch.Put([]byte("a"), []byte("1"))
	batch.Put([]byte("b"), []byte("2"))
	batch.Delete([]byte("stale"))
	if err := db.WriteBatch(batch); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	got, err := db.Get([]byte("b"))
	if err != nil || string(got) != "2" {
		t.Fatalf("unexpected value %q (err=%v)", got, err)
	}
	if _, err := db.Get([]byte("stale")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected stale key removed, got %v", err)
	}
}

func TestLevelDBBatchPersists(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewLevelDB(dir)
	require.NoError(t, err)

	batch := new(Batch)
	batch.Put([]byte("balance"), []byte{0x64})
	require.NoError(t, db1.WriteBatch(batch))
	db1.Close()

	db2, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.Get([]byte("balance"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x64}, got)

	_, err = db2.Get([]byte("absent"))
	require.ErrorIs(t, err, ErrNotFound)
}
