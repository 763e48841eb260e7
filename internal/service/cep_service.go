package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/evyataryagoni/cepcache/internal/logger"
	"github.com/evyataryagoni/cepcache/internal/metrics"
	"github.com/evyataryagoni/cepcache/internal/models"
	"github.com/evyataryagoni/cepcache/internal/postalcode"
	"github.com/evyataryagoni/cepcache/internal/store"
	"github.com/go-playground/validator/v10"
)

// AddressLookup fetches an address from an external source
// Implemented by viacep.Client; returns models.ErrNotFound or models.ErrTransport on failure
type AddressLookup interface {
	Lookup(ctx context.Context, code string) (*models.PostalRecord, error)
}

// CEPService resolves postal codes, using the store as a cache in front of the lookup client
//
// Responsibilities:
//   - Normalize and validate input
//   - Probe the store, fetch upstream on a miss
//   - Persist fetched records before returning them
//
// The service holds no per-request state and is safe for concurrent use.
type CEPService struct {
	store     store.Store
	lookup    AddressLookup
	validator *validator.Validate
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewCEPService creates a new CEP service
//
// Parameters:
//   - store: any implementation of the Store interface
//   - lookup: the external address source
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func NewCEPService(store store.Store, lookup AddressLookup, m *metrics.Metrics, log *logger.Logger) *CEPService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &CEPService{
		store:     store,
		lookup:    lookup,
		validator: validator.New(),
		metrics:   m,
		logger:    log.WithComponent("CEPService"),
	}
}

// Resolve turns a raw postal code into an address record
//
// Flow:
//  1. Normalize and validate (8 digits), else ErrInvalidInput
//  2. Cache probe: a hit is returned as is; a store failure is logged and treated as a miss
//  3. External fetch: ErrNotFound and ErrTransport are returned to the caller
//  4. Persist: a failure is ErrStorage and the fetched record is discarded
//  5. Return the persisted record with its id and QueriedAt
//
// Concurrent misses for the same code may both fetch; the store's unique code
// constraint then fails one of the inserts with ErrStorage.
func (s *CEPService) Resolve(ctx context.Context, raw string) (*models.PostalRecord, error) {
	code := postalcode.Normalize(raw)
	if err := s.validator.Var(code, "len=8,numeric"); err != nil {
		s.logger.Warn().Str("input", raw).Msg("Invalid postal code")
		s.countError("validation")
		return nil, fmt.Errorf("%w: %q must contain exactly %d digits", models.ErrInvalidInput, raw, postalcode.Length)
	}

	log := s.logger.WithCEP(code)

	cached, found, err := s.store.FindByCode(ctx, code)
	switch {
	case err != nil:
		// Best-effort cache: an unavailable store must not block fresh lookups
		log.Warn().Err(err).Msg("Cache probe failed, continuing with external lookup")
		s.countCache("error")
	case found:
		log.Debug().Int64("id", cached.ID).Msg("Cache hit")
		s.countCache("hit")
		if s.metrics != nil {
			s.metrics.ResolutionsTotal.WithLabelValues("cache").Inc()
		}
		return cached, nil
	default:
		s.countCache("miss")
	}

	record, err := s.lookup.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Info().Msg("Postal code not found upstream")
			s.countError("not_found")
			return nil, err
		}
		log.Error().Err(err).Msg("External lookup failed")
		s.countError("transport")
		if !errors.Is(err, models.ErrTransport) {
			err = fmt.Errorf("%w: %w", models.ErrTransport, err)
		}
		return nil, err
	}
	record.Code = code

	id, err := s.store.Insert(ctx, record)
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist fetched record")
		s.countError("storage")
		if !errors.Is(err, models.ErrStorage) {
			err = fmt.Errorf("%w: %w", models.ErrStorage, err)
		}
		return nil, err
	}
	record.ID = id

	log.Info().
		Int64("id", id).
		Str("masked", postalcode.Format(code)).
		Str("city", record.City).
		Str("state", record.State).
		Msg("Postal code fetched and stored")
	if s.metrics != nil {
		s.metrics.ResolutionsTotal.WithLabelValues("upstream").Inc()
	}
	return record, nil
}

// ListAll returns every cached record
func (s *CEPService) ListAll(ctx context.Context) ([]models.PostalRecord, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list cached postal codes")
		if !errors.Is(err, models.ErrStorage) {
			err = fmt.Errorf("%w: %w", models.ErrStorage, err)
		}
		return nil, err
	}
	return records, nil
}

// Close cleans up resources
// This will close the underlying store (database connections, etc.)
func (s *CEPService) Close() error {
	return s.store.Close()
}

func (s *CEPService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.DatastoreCacheHits.WithLabelValues(result).Inc()
	}
}

func (s *CEPService) countError(errorType string) {
	if s.metrics != nil {
		s.metrics.ResolutionErrors.WithLabelValues(errorType).Inc()
	}
}
