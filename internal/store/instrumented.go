package store

import (
	"context"
	"time"

	"github.com/evyataryagoni/cepcache/internal/metrics"
	"github.com/evyataryagoni/cepcache/internal/models"
)

// InstrumentedStore decorates a Store with datastore query metrics
type InstrumentedStore struct {
	next    Store
	metrics *metrics.Metrics
	name    string // datastore label: mysql, redis, memory
}

// Instrumented wraps next so every call records datastore_queries_total and
// datastore_query_duration_seconds. A nil metrics collector returns next unchanged.
func Instrumented(next Store, m *metrics.Metrics, name string) Store {
	if m == nil {
		return next
	}
	return &InstrumentedStore{next: next, metrics: m, name: name}
}

func (s *InstrumentedStore) observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.DatastoreQueriesTotal.WithLabelValues(s.name, operation, status).Inc()
	s.metrics.DatastoreQueryDuration.WithLabelValues(s.name, operation).Observe(time.Since(start).Seconds())
}

func (s *InstrumentedStore) Insert(ctx context.Context, record *models.PostalRecord) (int64, error) {
	start := time.Now()
	id, err := s.next.Insert(ctx, record)
	s.observe("insert", start, err)
	return id, err
}

func (s *InstrumentedStore) FindByCode(ctx context.Context, code string) (*models.PostalRecord, bool, error) {
	start := time.Now()
	record, found, err := s.next.FindByCode(ctx, code)
	s.observe("find_by_code", start, err)
	return record, found, err
}

func (s *InstrumentedStore) ListAll(ctx context.Context) ([]models.PostalRecord, error) {
	start := time.Now()
	records, err := s.next.ListAll(ctx)
	s.observe("list_all", start, err)
	return records, err
}

func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}
