package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evyataryagoni/cepcache/internal/metrics"
	"github.com/evyataryagoni/cepcache/internal/models"
	"github.com/evyataryagoni/cepcache/internal/store"
	"github.com/evyataryagoni/cepcache/internal/viacep"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestCEPService_Resolve_InvalidInput tests validation errors
func TestCEPService_Resolve_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"too short", "123"},
		{"letters only", "abc-def"},
		{"seven digits", "0131010"},
		{"nine digits", "013101000"},
		{"spaces only", "        "},
		{"masked but short", "01310-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := store.NewMockStore()
			mockClient := viacep.NewMockClient()
			service := NewCEPService(mockStore, mockClient, nil, nil)

			result, err := service.Resolve(context.Background(), tt.input)

			if !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("expected invalid input error, got %v", err)
			}
			if result != nil {
				t.Error("expected nil result, got data")
			}

			// Neither collaborator is touched for invalid input
			if len(mockStore.FindByCodeCalls) != 0 {
				t.Errorf("expected 0 store calls, got %d", len(mockStore.FindByCodeCalls))
			}
			if len(mockClient.LookupCalls) != 0 {
				t.Errorf("expected 0 client calls, got %d", len(mockClient.LookupCalls))
			}
		})
	}
}

// TestCEPService_Resolve_CacheHit tests that stored records are returned without an upstream call
func TestCEPService_Resolve_CacheHit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"normalized", "01310100"},
		{"masked", "01310-100"},
		{"with spaces", " 01310 100 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := store.NewMockStore()
			mockClient := viacep.NewMockClient()
			service := NewCEPService(mockStore, mockClient, nil, nil)

			result, err := service.Resolve(context.Background(), tt.input)

			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if *result != *mockStore.Data["01310100"] {
				t.Errorf("expected stored record, got %+v", result)
			}
			if result.QueriedAt != nil {
				t.Error("expected QueriedAt unset for a cached record")
			}

			if len(mockStore.FindByCodeCalls) != 1 || mockStore.FindByCodeCalls[0] != "01310100" {
				t.Errorf("expected store probed with normalized code, got %v", mockStore.FindByCodeCalls)
			}
			if len(mockClient.LookupCalls) != 0 {
				t.Errorf("expected 0 client calls, got %d", len(mockClient.LookupCalls))
			}
			if len(mockStore.InsertCalls) != 0 {
				t.Errorf("expected 0 inserts, got %d", len(mockStore.InsertCalls))
			}
		})
	}
}

// TestCEPService_Resolve_FetchAndPersist tests the full miss path
func TestCEPService_Resolve_FetchAndPersist(t *testing.T) {
	mockStore := store.NewEmptyMockStore()
	mockClient := viacep.NewMockClient()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mockClient.Now = func() time.Time { return fixed }
	service := NewCEPService(mockStore, mockClient, nil, nil)

	result, err := service.Resolve(context.Background(), "01310-930")

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.Street != "Avenida Paulista" {
		t.Errorf("expected 'Avenida Paulista', got '%s'", result.Street)
	}
	if result.Code != "01310930" {
		t.Errorf("expected normalized code, got %s", result.Code)
	}
	if result.ID == 0 {
		t.Error("expected a non-empty id")
	}
	if result.QueriedAt == nil || !result.QueriedAt.Equal(fixed) {
		t.Errorf("expected QueriedAt %v, got %v", fixed, result.QueriedAt)
	}

	if len(mockClient.LookupCalls) != 1 || mockClient.LookupCalls[0] != "01310930" {
		t.Errorf("expected one lookup with the normalized code, got %v", mockClient.LookupCalls)
	}
	if len(mockStore.InsertCalls) != 1 {
		t.Fatalf("expected insert exactly once, got %d", len(mockStore.InsertCalls))
	}
	if mockStore.InsertCalls[0].Code != "01310930" {
		t.Errorf("expected inserted code 01310930, got %s", mockStore.InsertCalls[0].Code)
	}

	// A second resolution is served from the store
	again, err := service.Resolve(context.Background(), "01310930")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if again.ID != result.ID {
		t.Errorf("expected cached id %d, got %d", result.ID, again.ID)
	}
	if len(mockClient.LookupCalls) != 1 {
		t.Errorf("expected no further lookups, got %d", len(mockClient.LookupCalls))
	}
}

// TestCEPService_Resolve_NotFound tests an unknown code
func TestCEPService_Resolve_NotFound(t *testing.T) {
	mockStore := store.NewEmptyMockStore()
	mockClient := viacep.NewMockClient()
	service := NewCEPService(mockStore, mockClient, nil, nil)

	result, err := service.Resolve(context.Background(), "99999999")

	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
	if result != nil {
		t.Error("expected nil result")
	}
	if len(mockStore.InsertCalls) != 0 {
		t.Errorf("expected no insert, got %d", len(mockStore.InsertCalls))
	}
}

// TestCEPService_Resolve_TransportError tests that upstream failures are not swallowed
func TestCEPService_Resolve_TransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"wrapped transport error", errors.New("connection reset")},
		{"plain error", errors.New("boom")},
	}
	tests[0].err = errors.Join(models.ErrTransport, tests[0].err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := store.NewEmptyMockStore()
			mockClient := viacep.NewMockClient()
			mockClient.LookupError = tt.err
			service := NewCEPService(mockStore, mockClient, nil, nil)

			result, err := service.Resolve(context.Background(), "01310930")

			if !errors.Is(err, models.ErrTransport) {
				t.Errorf("expected transport error, got %v", err)
			}
			if result != nil {
				t.Error("expected nil result")
			}
			if len(mockStore.InsertCalls) != 0 {
				t.Errorf("expected no insert, got %d", len(mockStore.InsertCalls))
			}
		})
	}
}

// TestCEPService_Resolve_CacheProbeFailure tests that a failing probe falls through to the client
func TestCEPService_Resolve_CacheProbeFailure(t *testing.T) {
	mockStore := store.NewEmptyMockStore()
	mockStore.FindByCodeError = errors.Join(models.ErrStorage, errors.New("connection refused"))
	mockClient := viacep.NewMockClient()
	service := NewCEPService(mockStore, mockClient, nil, nil)

	result, err := service.Resolve(context.Background(), "01310930")

	if err != nil {
		t.Fatalf("expected probe failure to be tolerated, got: %v", err)
	}
	if result.ID == 0 {
		t.Error("expected the persisted record")
	}
	if len(mockClient.LookupCalls) != 1 {
		t.Errorf("expected 1 client call, got %d", len(mockClient.LookupCalls))
	}
	if len(mockStore.InsertCalls) != 1 {
		t.Errorf("expected 1 insert, got %d", len(mockStore.InsertCalls))
	}
}

// TestCEPService_Resolve_PersistFailure tests that an unsaved record is never returned
func TestCEPService_Resolve_PersistFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"storage error", errors.Join(models.ErrStorage, errors.New("duplicate entry"))},
		{"plain error", errors.New("disk full")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := store.NewEmptyMockStore()
			mockStore.InsertError = tt.err
			mockClient := viacep.NewMockClient()
			service := NewCEPService(mockStore, mockClient, nil, nil)

			result, err := service.Resolve(context.Background(), "01310930")

			if !errors.Is(err, models.ErrStorage) {
				t.Errorf("expected storage error, got %v", err)
			}
			if result != nil {
				t.Error("expected fetched record to be discarded")
			}
			if len(mockClient.LookupCalls) != 1 {
				t.Errorf("expected 1 client call, got %d", len(mockClient.LookupCalls))
			}
		})
	}
}

// TestCEPService_Resolve_ProbeAndPersistFailure tests the asymmetry when the store is fully down
func TestCEPService_Resolve_ProbeAndPersistFailure(t *testing.T) {
	storeDown := errors.Join(models.ErrStorage, errors.New("connection refused"))
	mockStore := store.NewEmptyMockStore()
	mockStore.FindByCodeError = storeDown
	mockStore.InsertError = storeDown
	service := NewCEPService(mockStore, viacep.NewMockClient(), nil, nil)

	_, err := service.Resolve(context.Background(), "01310930")

	if !errors.Is(err, models.ErrStorage) {
		t.Errorf("expected storage error from persist step, got %v", err)
	}
}

// TestCEPService_Resolve_Metrics tests resolution counters
func TestCEPService_Resolve_Metrics(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	mockStore := store.NewMockStore()
	service := NewCEPService(mockStore, viacep.NewMockClient(), m, nil)
	ctx := context.Background()

	service.Resolve(ctx, "01310100") // hit
	service.Resolve(ctx, "01310930") // miss, fetched
	service.Resolve(ctx, "99999999") // miss, not found
	service.Resolve(ctx, "123")      // invalid

	mockStore.FindByCodeError = errors.New("timeout")
	service.Resolve(ctx, "20040002") // probe error, not found upstream

	checks := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"resolutions cache", testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("cache")), 1},
		{"resolutions upstream", testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("upstream")), 1},
		{"cache hit", testutil.ToFloat64(m.DatastoreCacheHits.WithLabelValues("hit")), 1},
		{"cache miss", testutil.ToFloat64(m.DatastoreCacheHits.WithLabelValues("miss")), 2},
		{"cache error", testutil.ToFloat64(m.DatastoreCacheHits.WithLabelValues("error")), 1},
		{"not found", testutil.ToFloat64(m.ResolutionErrors.WithLabelValues("not_found")), 2},
		{"validation", testutil.ToFloat64(m.ResolutionErrors.WithLabelValues("validation")), 1},
	}

	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("%s: expected %v, got %v", c.name, c.expected, c.got)
		}
	}
}

// TestCEPService_ListAll tests listing cached records
func TestCEPService_ListAll(t *testing.T) {
	mockStore := store.NewMockStore()
	service := NewCEPService(mockStore, viacep.NewMockClient(), nil, nil)

	records, err := service.ListAll(context.Background())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Code != "01310100" || records[1].Code != "20040002" {
		t.Errorf("unexpected order: %s, %s", records[0].Code, records[1].Code)
	}
}

// TestCEPService_ListAll_StoreError tests list failures
func TestCEPService_ListAll_StoreError(t *testing.T) {
	mockStore := store.NewMockStore()
	mockStore.ListAllError = errors.New("connection refused")
	service := NewCEPService(mockStore, viacep.NewMockClient(), nil, nil)

	records, err := service.ListAll(context.Background())

	if !errors.Is(err, models.ErrStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
	if records != nil {
		t.Error("expected nil records")
	}
}

// TestCEPService_WithMemoryStore tests the workflow against a real store
func TestCEPService_WithMemoryStore(t *testing.T) {
	memStore := store.NewMemoryStore()
	mockClient := viacep.NewMockClient()
	service := NewCEPService(memStore, mockClient, nil, nil)
	ctx := context.Background()

	first, err := service.Resolve(ctx, "01310-930")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := service.Resolve(ctx, "01310930")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected same id, got %d and %d", first.ID, second.ID)
	}
	if second.QueriedAt != nil {
		t.Error("expected cached record without QueriedAt")
	}
	if len(mockClient.LookupCalls) != 1 {
		t.Errorf("expected 1 upstream call, got %d", len(mockClient.LookupCalls))
	}

	records, _ := service.ListAll(ctx)
	if len(records) != 1 {
		t.Errorf("expected 1 cached record, got %d", len(records))
	}
}

// TestCEPService_Close tests that Close reaches the store
func TestCEPService_Close(t *testing.T) {
	mockStore := store.NewMockStore()
	service := NewCEPService(mockStore, viacep.NewMockClient(), nil, nil)

	if err := service.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mockStore.CloseCalled {
		t.Error("expected store Close to be called")
	}
}
