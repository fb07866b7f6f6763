package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestArchive(t *testing.T) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".sealsheet")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	return db, path
}

func TestOpenAndInitialize(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sealsheet")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	defer db.Close()

	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if initialized {
		t.Error("Fresh file should not be initialized")
	}

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	initialized, err = db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if !initialized {
		t.Error("Archive should be initialized")
	}

	created, err := db.GetCreated()
	if err != nil {
		t.Fatalf("Failed to get created: %v", err)
	}
	if time.Since(created) > time.Minute {
		t.Errorf("Unexpected creation time %v", created)
	}
}

func TestIterations(t *testing.T) {
	db, _ := openTestArchive(t)

	if _, err := db.GetIterations(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound before SetIterations, got %v", err)
	}

	if err := db.SetIterations(10000); err != nil {
		t.Fatalf("Failed to set iterations: %v", err)
	}

	got, err := db.GetIterations()
	if err != nil {
		t.Fatalf("Failed to get iterations: %v", err)
	}
	if got != 10000 {
		t.Errorf("Iterations mismatch: got %d, want 10000", got)
	}
}

func TestModified(t *testing.T) {
	db, _ := openTestArchive(t)

	before, err := db.GetModified()
	if err != nil {
		t.Fatalf("Failed to get modified: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if err := db.StoreRecords([]SealedRecord{{Entry: IndexEntry{Key: "mail"}, Encoded: "x"}}, nil); err != nil {
		t.Fatalf("Failed to store records: %v", err)
	}

	after, err := db.GetModified()
	if err != nil {
		t.Fatalf("Failed to get modified: %v", err)
	}
	if !after.After(before) {
		t.Errorf("Modified time did not advance: %v -> %v", before, after)
	}
}

func TestVaultID(t *testing.T) {
	db, _ := openTestArchive(t)

	if _, err := db.GetVaultID(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	id, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("Failed to create vault ID: %v", err)
	}
	if len(id) != 32 {
		t.Errorf("Vault ID should be 32 hex chars, got %q", id)
	}

	again, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("Failed to get vault ID: %v", err)
	}
	if again != id {
		t.Errorf("Vault ID changed: %s -> %s", id, again)
	}
}

func TestIndexAndSealed(t *testing.T) {
	db, _ := openTestArchive(t)

	const encoded = "U2FsdGVkX18AAAAAAAAAAOZcz/dsua8ify+Sy6p2w6w="
	added := time.Now().UTC().Truncate(time.Second)
	rec := SealedRecord{
		Entry:   IndexEntry{Key: "mail", Size: len(encoded), Added: added, Source: "export.json"},
		Encoded: encoded,
	}
	if err := db.StoreRecords([]SealedRecord{rec}, nil); err != nil {
		t.Fatalf("Failed to store records: %v", err)
	}

	entries, err := db.GetIndex()
	if err != nil {
		t.Fatalf("Failed to get index: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Key != "mail" || entries[0].Size != len(encoded) || entries[0].Source != "export.json" {
		t.Errorf("Unexpected entry: %+v", entries[0])
	}
	if !entries[0].Added.Equal(added) {
		t.Errorf("Added mismatch: got %v, want %v", entries[0].Added, added)
	}

	got, err := db.GetSealed("mail")
	if err != nil {
		t.Fatalf("Failed to get sealed: %v", err)
	}
	if got != encoded {
		t.Errorf("Sealed mismatch: %s", got)
	}

	if _, err := db.GetSealed("bank"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing record, got %v", err)
	}
}

func TestStoreAndRemoveRecords(t *testing.T) {
	db, _ := openTestArchive(t)

	recs := []SealedRecord{
		{Entry: IndexEntry{Key: "zeta", Size: 3}, Encoded: "zzz"},
		{Entry: IndexEntry{Key: "alpha", Size: 3}, Encoded: "aaa"},
		{Entry: IndexEntry{Key: "mail", Size: 3}, Encoded: "mmm"},
	}
	if err := db.StoreRecords(recs, nil); err != nil {
		t.Fatalf("Failed to store records: %v", err)
	}

	keys, err := db.Keys()
	if err != nil {
		t.Fatalf("Failed to list keys: %v", err)
	}
	want := []string{"alpha", "mail", "zeta"}
	if len(keys) != len(want) {
		t.Fatalf("Expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Key %d: got %s, want %s", i, keys[i], want[i])
		}
	}

	seen := map[string]string{}
	err = db.ForEachSealed(func(key, encoded string) error {
		seen[key] = encoded
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachSealed failed: %v", err)
	}
	if seen["alpha"] != "aaa" || seen["zeta"] != "zzz" {
		t.Errorf("Unexpected sealed contents: %v", seen)
	}

	if err := db.RemoveRecords([]string{"alpha", "zeta"}, map[string]string{PrivateHashes: "h"}); err != nil {
		t.Fatalf("Failed to remove records: %v", err)
	}

	entries, err := db.GetIndex()
	if err != nil {
		t.Fatalf("Failed to get index: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "mail" {
		t.Errorf("Expected only mail to remain, got %+v", entries)
	}

	hashes, err := db.GetPrivate(PrivateHashes)
	if err != nil || hashes != "h" {
		t.Errorf("Private value not written with removal: %q, %v", hashes, err)
	}
}

func TestForEachSealedStopsOnError(t *testing.T) {
	db, _ := openTestArchive(t)

	if err := db.StoreRecords([]SealedRecord{
		{Entry: IndexEntry{Key: "a"}, Encoded: "1"},
		{Entry: IndexEntry{Key: "b"}, Encoded: "2"},
	}, nil); err != nil {
		t.Fatalf("Failed to store records: %v", err)
	}

	stop := errors.New("stop")
	calls := 0
	err := db.ForEachSealed(func(key, encoded string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestPrivateStorage(t *testing.T) {
	db, _ := openTestArchive(t)

	if _, err := db.GetPrivate(PrivateChecksum); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := db.StorePrivate(PrivateChecksum, "sealed-check"); err != nil {
		t.Fatalf("Failed to store private: %v", err)
	}

	got, err := db.GetPrivate(PrivateChecksum)
	if err != nil {
		t.Fatalf("Failed to get private: %v", err)
	}
	if got != "sealed-check" {
		t.Errorf("Private mismatch: got %s", got)
	}
}

func TestReplaceAll(t *testing.T) {
	db, _ := openTestArchive(t)

	if err := db.StoreRecords([]SealedRecord{{Entry: IndexEntry{Key: "mail"}, Encoded: "old"}}, nil); err != nil {
		t.Fatalf("Failed to store records: %v", err)
	}

	if err := db.ReplaceAll([]SealedRecord{{Entry: IndexEntry{Key: "mail"}, Encoded: "new"}}, map[string]string{PrivateChecksum: "check"}, 20000); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}

	got, _ := db.GetSealed("mail")
	if got != "new" {
		t.Errorf("Record not replaced: %s", got)
	}
	check, _ := db.GetPrivate(PrivateChecksum)
	if check != "check" {
		t.Errorf("Checksum not replaced: %s", check)
	}
	iters, _ := db.GetIterations()
	if iters != 20000 {
		t.Errorf("Iterations not replaced: %d", iters)
	}
}

func TestUninitializedAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sealsheet")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	defer db.Close()

	if _, err := db.GetSealed("x"); !errors.Is(err, ErrMissingBucket) {
		t.Errorf("Expected ErrMissingBucket, got %v", err)
	}
	if err := db.StoreRecords(nil, nil); !errors.Is(err, ErrMissingBucket) {
		t.Errorf("Expected ErrMissingBucket, got %v", err)
	}
}

func TestCompact(t *testing.T) {
	db, path := openTestArchive(t)

	var recs []SealedRecord
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("rec-%03d", i)
		recs = append(recs, SealedRecord{Entry: IndexEntry{Key: key}, Encoded: strings.Repeat("A", 1024)})
	}
	if err := db.StoreRecords(recs, nil); err != nil {
		t.Fatalf("Failed to store records: %v", err)
	}
	if err := db.StoreRecords([]SealedRecord{{Entry: IndexEntry{Key: "keep"}, Encoded: "kept"}}, nil); err != nil {
		t.Fatalf("Failed to store record: %v", err)
	}

	keys := make([]string, len(recs))
	for i, r := range recs {
		keys[i] = r.Entry.Key
	}
	if err := db.RemoveRecords(keys, nil); err != nil {
		t.Fatalf("Failed to remove records: %v", err)
	}

	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat archive: %v", err)
	}

	if err := db.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat archive: %v", err)
	}
	if after.Size() > before.Size() {
		t.Errorf("Compacted archive grew: %d -> %d", before.Size(), after.Size())
	}

	got, err := db.GetSealed("keep")
	if err != nil {
		t.Fatalf("Record lost after compaction: %v", err)
	}
	if got != "kept" {
		t.Errorf("Record mismatch after compaction: %s", got)
	}

	if _, err := os.Stat(path + ".backup"); !os.IsNotExist(err) {
		t.Error("Backup file should be removed")
	}
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sealsheet")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if err := db.SetIterations(5000); err != nil {
		t.Fatalf("Failed to set iterations: %v", err)
	}
	if err := db.StoreRecords([]SealedRecord{{Entry: IndexEntry{Key: "mail"}, Encoded: "data"}}, nil); err != nil {
		t.Fatalf("Failed to store record: %v", err)
	}
	db.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen archive: %v", err)
	}
	defer db2.Close()

	iters, err := db2.GetIterations()
	if err != nil || iters != 5000 {
		t.Fatalf("Iterations not persisted: %d, %v", iters, err)
	}

	data, err := db2.GetSealed("mail")
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if data != "data" {
		t.Error("Record not persisted correctly")
	}
}
