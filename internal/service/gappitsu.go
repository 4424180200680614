package service

import (
	"context"
	"fmt"
	"io"

	"chiban-geocoder/internal/addressindex"
	"chiban-geocoder/internal/chiban"
	"chiban-geocoder/internal/models"

	"github.com/rs/zerolog"
)

// ChangeHistoryRepository interface for dependency injection
type ChangeHistoryRepository interface {
	CountChangeHistory(ctx context.Context, prefix string) (int, error)
	ForEachChangeHistory(ctx context.Context, prefix string, fn func(models.ChangeHistoryRecord) error) error
}

// GappitsuCreator writes supplementary dictionary lines for parcel numbers
// that disappeared in a merge (合筆).
type GappitsuCreator struct {
	repo          ChangeHistoryRepository
	reconstructor *chiban.Reconstructor
	logger        zerolog.Logger
}

// NewGappitsuCreator creates a new merge dictionary creator. index must already
// contain the parcel dictionary.
func NewGappitsuCreator(repo ChangeHistoryRepository, index AddressIndex, logger zerolog.Logger) *GappitsuCreator {
	resolver := chiban.NewResolver(index, logger)
	return &GappitsuCreator{
		repo:          repo,
		reconstructor: chiban.NewReconstructor(resolver, index, logger),
		logger:        logger,
	}
}

// Create writes the merge dictionary for the code prefix and returns the
// number of lines written.
func (s *GappitsuCreator) Create(ctx context.Context, prefix string, out io.Writer) (int, error) {
	s.reconstructor.Reset()

	total, err := s.repo.CountChangeHistory(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("service: failed to count change histories: %w", err)
	}
	if total == 0 {
		return 0, nil
	}

	n, seen := 0, 0
	err = s.repo.ForEachChangeHistory(ctx, prefix, func(rec models.ChangeHistoryRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen++
		if seen%progressInterval == 0 {
			s.logger.Info().Str("prefix", prefix).Int("done", seen).Int("total", total).Msg("reconstructing merged parcels")
		}

		for _, e := range s.reconstructor.Reconstruct(rec) {
			if _, err := fmt.Fprintln(out, addressindex.FormatLine(e)); err != nil {
				return fmt.Errorf("service: failed to write dictionary line: %w", err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("service: failed to create merge dictionary: %w", err)
	}
	return n, nil
}
