package service

import (
	"context"
	"fmt"

	"chiban-geocoder/internal/addressindex"
	"chiban-geocoder/internal/chiban"
	"chiban-geocoder/internal/models"
	"chiban-geocoder/internal/normalize"

	"github.com/rs/zerolog"
)

// LandRepository interface for dependency injection
type LandRepository interface {
	CountLand(ctx context.Context, prefix string) (int, error)
	ForEachLand(ctx context.Context, prefix string, fn func(models.LandRecord) error) error
}

// LandCleaner attaches the parcel code to land registry rows.
type LandCleaner struct {
	repo     LandRepository
	cities   *CityNames
	resolver *chiban.Resolver
	logger   zerolog.Logger
}

// NewLandCleaner creates a new land cleaner
func NewLandCleaner(repo LandRepository, index AddressIndex, cities *CityNames, logger zerolog.Logger) *LandCleaner {
	return &LandCleaner{
		repo:     repo,
		cities:   cities,
		resolver: chiban.NewResolver(index, logger),
		logger:   logger,
	}
}

// Clean writes a row for every land record under prefix whose parcel resolves
// directly to a parcel code, and returns the number of rows written.
func (s *LandCleaner) Clean(ctx context.Context, prefix string, out RowWriter) (int, error) {
	pref := s.cities.PrefName(prefix)
	if pref == "" {
		return 0, fmt.Errorf("service: unknown prefecture code %q", prefix)
	}

	total, err := s.repo.CountLand(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("service: failed to count land numbers: %w", err)
	}
	if total == 0 {
		return 0, nil
	}

	opts := chiban.ResolveOptions{
		Area:           []string{pref},
		ExactMatchOnly: true,
		AzaSkip:        addressindex.AzaSkipAuto,
	}

	n, seen := 0, 0
	err = s.repo.ForEachLand(ctx, prefix, func(rec models.LandRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen++
		if seen%progressInterval == 0 {
			s.logger.Info().Str("prefix", prefix).Int("done", seen).Int("total", total).Msg("cleaning land numbers")
		}

		for _, e := range s.resolver.Resolve(normalize.Record(rec.Shozai+rec.Chiban), opts) {
			if e.Status != chiban.StatusDirect {
				continue
			}
			row := models.LandParcelRow{
				CityCode:     rec.CityCode,
				Shozai:       rec.Shozai,
				Chiban:       rec.Chiban,
				RegisteredAt: rec.RegisteredAt,
				LandID:       rec.LandID,
				FudeCode:     e.Code,
			}
			if err := out.Write(row.Fields()); err != nil {
				return fmt.Errorf("service: failed to write row: %w", err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("service: failed to clean land numbers: %w", err)
	}
	return n, nil
}
