package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"student-loan/domain"
)

var ErrNotFound = errors.New("loan not found")

type LoanRepository interface {
	Save(ctx context.Context, record domain.LoanRecord) error
	Get(ctx context.Context, id string) (domain.LoanRecord, error)
	// Update loads the record, lets fn modify it and stores it atomically.
	// Nothing is stored when fn returns an error. fn may run more than once.
	Update(ctx context.Context, id string, fn func(record *domain.LoanRecord) error) error
}

const loanKeyPrefix = "loan:"

// CacheLoanRepository stores loan records as JSON in a CacheRepository.
type CacheLoanRepository struct {
	cache CacheRepository
}

func NewCacheLoanRepository(cache CacheRepository) *CacheLoanRepository {
	return &CacheLoanRepository{cache: cache}
}

func (r *CacheLoanRepository) Save(ctx context.Context, record domain.LoanRecord) error {
	if record.ID == "" {
		return errors.New("loan record has no id")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode loan %s: %w", record.ID, err)
	}
	return r.cache.Set(ctx, loanKeyPrefix+record.ID, string(raw))
}

func (r *CacheLoanRepository) Get(ctx context.Context, id string) (domain.LoanRecord, error) {
	raw, ok, err := r.cache.Get(ctx, loanKeyPrefix+id)
	if err != nil {
		return domain.LoanRecord{}, err
	}
	if !ok {
		return domain.LoanRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var record domain.LoanRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return domain.LoanRecord{}, fmt.Errorf("decode loan %s: %w", id, err)
	}
	return record, nil
}

func (r *CacheLoanRepository) Update(
	ctx context.Context,
	id string,
	fn func(record *domain.LoanRecord) error,
) error {
	return r.cache.Update(ctx, loanKeyPrefix+id, func(current string, ok bool) (string, error) {
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		var record domain.LoanRecord
		if err := json.Unmarshal([]byte(current), &record); err != nil {
			return "", fmt.Errorf("decode loan %s: %w", id, err)
		}
		if err := fn(&record); err != nil {
			return "", err
		}

		raw, err := json.Marshal(record)
		if err != nil {
			return "", fmt.Errorf("encode loan %s: %w", id, err)
		}
		return string(raw), nil
	})
}
