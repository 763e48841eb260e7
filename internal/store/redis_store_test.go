package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/evyataryagoni/cepcache/internal/models"
)

// setupRedisStore starts a miniredis server and connects a store to it
func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("failed to connect to Redis: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, mr
}

// TestRedisStore_Connection tests Redis connection
func TestRedisStore_Connection(t *testing.T) {
	store, _ := setupRedisStore(t)

	if store.client == nil {
		t.Error("expected client to be initialized")
	}
}

// TestRedisStore_ConnectionFailure tests connection errors
func TestRedisStore_ConnectionFailure(t *testing.T) {
	_, err := NewRedisStore("invalid:9999", "", 0)

	if !errors.Is(err, models.ErrStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
}

// TestRedisStore_InsertAndFind tests a full round trip
func TestRedisStore_InsertAndFind(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	now := time.Now()
	record := &models.PostalRecord{
		Code:         "01310930",
		Street:       "Avenida Paulista",
		Complement:   "2100",
		Neighborhood: "Bela Vista",
		City:         "São Paulo",
		State:        "SP",
		QueriedAt:    &now,
	}

	id, err := store.Insert(ctx, record)
	if err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	if id != 1 {
		t.Errorf("expected first id to be 1, got %d", id)
	}
	if record.ID != id {
		t.Errorf("expected record.ID %d, got %d", id, record.ID)
	}

	found, ok, err := store.FindByCode(ctx, "01310930")
	if err != nil {
		t.Fatalf("unexpected find error: %v", err)
	}
	if !ok {
		t.Fatal("expected record to be found")
	}
	if found.ID != 1 {
		t.Errorf("expected id 1, got %d", found.ID)
	}
	if found.Street != "Avenida Paulista" || found.City != "São Paulo" || found.State != "SP" {
		t.Errorf("unexpected record: %+v", found)
	}
	if found.QueriedAt != nil {
		t.Error("expected QueriedAt not to be persisted")
	}
	if found.Complement != "" {
		t.Error("expected Complement not to be persisted")
	}
}

// TestRedisStore_FindByCode_NotFound tests that a miss is not an error
func TestRedisStore_FindByCode_NotFound(t *testing.T) {
	store, _ := setupRedisStore(t)

	record, ok, err := store.FindByCode(context.Background(), "99999999")

	if err != nil {
		t.Fatalf("expected no error for a miss, got %v", err)
	}
	if ok || record != nil {
		t.Error("expected no record")
	}
}

// TestRedisStore_FindByCode_CorruptValue tests undecodable data
func TestRedisStore_FindByCode_CorruptValue(t *testing.T) {
	store, mr := setupRedisStore(t)

	mr.Set("cep:code:01310100", "{not json")

	_, _, err := store.FindByCode(context.Background(), "01310100")

	if !errors.Is(err, models.ErrStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
}

// TestRedisStore_Insert_Duplicate tests uniqueness of the code
func TestRedisStore_Insert_Duplicate(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	if _, err := store.Insert(ctx, &models.PostalRecord{Code: "01310100", City: "São Paulo", State: "SP"}); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}

	dup := &models.PostalRecord{Code: "01310100", City: "Other", State: "XX"}
	_, err := store.Insert(ctx, dup)

	if !errors.Is(err, models.ErrStorage) {
		t.Fatalf("expected storage error for duplicate, got %v", err)
	}
	if dup.ID != 0 {
		t.Errorf("expected duplicate to keep a zero id, got %d", dup.ID)
	}

	// Original record is untouched
	found, _, _ := store.FindByCode(ctx, "01310100")
	if found.City != "São Paulo" {
		t.Errorf("expected original record, got %+v", found)
	}
}

// TestRedisStore_Insert_ServerDown tests connectivity failures
func TestRedisStore_Insert_ServerDown(t *testing.T) {
	store, mr := setupRedisStore(t)
	mr.Close()

	_, err := store.Insert(context.Background(), &models.PostalRecord{Code: "01310100"})

	if !errors.Is(err, models.ErrStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
}

// TestRedisStore_ListAll tests listing ordered by id
func TestRedisStore_ListAll(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	codes := []string{"70040010", "01310100", "20040002"}
	for _, code := range codes {
		if _, err := store.Insert(ctx, &models.PostalRecord{Code: code, City: "City " + code, State: "BR"}); err != nil {
			t.Fatalf("unexpected insert error: %v", err)
		}
	}

	// Unrelated keys are ignored
	mr.Set("ratelimit:127.0.0.1:1", "3")

	records, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != len(codes) {
		t.Fatalf("expected %d records, got %d", len(codes), len(records))
	}
	for i, record := range records {
		if record.Code != codes[i] {
			t.Errorf("position %d: expected code %s, got %s", i, codes[i], record.Code)
		}
		if record.ID != int64(i+1) {
			t.Errorf("position %d: expected id %d, got %d", i, i+1, record.ID)
		}
	}
}

// TestRedisStore_ListAll_Empty tests an empty database
func TestRedisStore_ListAll_Empty(t *testing.T) {
	store, _ := setupRedisStore(t)

	records, err := store.ListAll(context.Background())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", records)
	}
}

// TestRedisStore_IsEmpty tests emptiness check
func TestRedisStore_IsEmpty(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	empty, err := store.IsEmpty(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !empty {
		t.Error("expected empty store")
	}

	store.Insert(ctx, &models.PostalRecord{Code: "01310100"})

	empty, err = store.IsEmpty(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty {
		t.Error("expected non-empty store after insert")
	}
}

// TestRedisStore_Close tests cleanup
func TestRedisStore_Close(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("unexpected error on close: %v", err)
	}
}
