package service

import (
	"context"
	"errors"
	"fmt"

	"chiban-geocoder/internal/addressindex"
	"chiban-geocoder/internal/chiban"
	"chiban-geocoder/internal/models"
	"chiban-geocoder/internal/normalize"

	"github.com/rs/zerolog"
)

// progressInterval is the number of records between progress log lines.
const progressInterval = 10000

// RowWriter receives CSV records. *csv.Writer implements it.
type RowWriter interface {
	Write(record []string) error
}

// BuildingRepository interface for dependency injection
type BuildingRepository interface {
	CountBuildings(ctx context.Context, prefix string) (int, error)
	ForEachBuilding(ctx context.Context, prefix string, fn func(models.BuildingRecord) error) error
}

// BuildingCleaner links the "所在及び地番" notation of each building to the
// cadastral parcels it stands on.
type BuildingCleaner struct {
	repo      BuildingRepository
	index     AddressIndex
	cities    *CityNames
	segmenter *chiban.Segmenter
	resolver  *chiban.Resolver
	logger    zerolog.Logger
}

// NewBuildingCleaner creates a new building cleaner
func NewBuildingCleaner(repo BuildingRepository, index AddressIndex, cities *CityNames, logger zerolog.Logger) *BuildingCleaner {
	return &BuildingCleaner{
		repo:      repo,
		index:     index,
		cities:    cities,
		segmenter: chiban.NewSegmenter(index, logger),
		resolver:  chiban.NewResolver(index, logger),
		logger:    logger,
	}
}

// Clean writes one row per (parcel, parcel code) pair of every building under
// the code prefix and returns the number of rows written. Buildings of a
// municipality missing from the index are skipped.
func (s *BuildingCleaner) Clean(ctx context.Context, prefix string, out RowWriter) (int, error) {
	total, err := s.repo.CountBuildings(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("service: failed to count buildings: %w", err)
	}
	if total == 0 {
		return 0, nil
	}

	n, seen := 0, 0
	err = s.repo.ForEachBuilding(ctx, prefix, func(rec models.BuildingRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen++
		if seen%progressInterval == 0 {
			s.logger.Info().Str("prefix", prefix).Int("done", seen).Int("total", total).Msg("cleaning buildings")
		}

		rows, err := s.CleanRecord(rec)
		if errors.Is(err, ErrCityNotRegistered) {
			s.logger.Warn().
				Str("city_code", rec.CityCode).
				Str("shozai", rec.ShozaiChiban).
				Msg("municipality is not registered in the address index, skipped")
			return nil
		}
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := out.Write(row.Fields()); err != nil {
				return fmt.Errorf("service: failed to write row: %w", err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("service: failed to clean buildings: %w", err)
	}
	return n, nil
}

// CleanRecord segments and resolves the notation of one building.
func (s *BuildingCleaner) CleanRecord(rec models.BuildingRecord) ([]models.BuildingParcelRow, error) {
	names, err := s.cities.Names(rec.CityCode)
	if err != nil {
		return nil, err
	}

	notation := normalize.Record(rec.ShozaiChiban)
	parcels := s.segmenter.Segment(notation, chiban.SegmentOptions{Names: names, AzaSkip: addressindex.AzaSkipOn})
	opts := chiban.ResolveOptions{Area: names, AzaSkip: addressindex.AzaSkipOn}

	var rows []models.BuildingParcelRow
	for i, p := range parcels {
		local := chiban.Local(p)
		for j, e := range s.resolver.Resolve(p, opts) {
			row := models.BuildingParcelRow{
				BldgID:     rec.BldgID,
				ChibanSeq:  i,
				Chiban:     local,
				AddressSeq: j,
				FudeCode:   e.Code,
				Status:     int(e.Status),
			}
			if node := s.index.Node(e.Node); node != nil {
				row.Address = s.index.FullName(e.Node)
				row.CityCode = s.index.CityCode(e.Node)
				row.Lon = node.X
				row.Lat = node.Y
				row.Level = int(node.Level)
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}
