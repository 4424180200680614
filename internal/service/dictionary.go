package service

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"chiban-geocoder/internal/addressindex"
	"chiban-geocoder/internal/chiban"
	"chiban-geocoder/internal/models"

	"github.com/rs/zerolog"
)

// "123" or "123-4"; anything after the branch number is dropped.
var fudeChibanPattern = regexp.MustCompile(`^(\d+)(-\d.*)?$`)

// FudeRepository interface for dependency injection
type FudeRepository interface {
	CountFude(ctx context.Context, prefix string) (int, error)
	ForEachFude(ctx context.Context, prefix string, fn func(models.FudeRecord) error) error
}

// DictionaryCreator writes address dictionary lines for the parcels of the
// cadastral map, each tagged with its parcel code.
type DictionaryCreator struct {
	repo   FudeRepository
	cities *CityNames
	logger zerolog.Logger
}

// NewDictionaryCreator creates a new dictionary creator
func NewDictionaryCreator(repo FudeRepository, cities *CityNames, logger zerolog.Logger) *DictionaryCreator {
	return &DictionaryCreator{repo: repo, cities: cities, logger: logger}
}

// Create writes the dictionary of one prefecture and returns the number of
// lines written. A parcel in a municipality missing from the index is fatal:
// the dictionary would be silently incomplete.
func (s *DictionaryCreator) Create(ctx context.Context, prefCode string, out io.Writer) (int, error) {
	total, err := s.repo.CountFude(ctx, prefCode)
	if err != nil {
		return 0, fmt.Errorf("service: failed to count parcels: %w", err)
	}
	if total == 0 {
		return 0, nil
	}

	n := 0
	err = s.repo.ForEachFude(ctx, prefCode, func(rec models.FudeRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := s.Entry(rec)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, addressindex.FormatLine(entry)); err != nil {
			return fmt.Errorf("service: failed to write dictionary line: %w", err)
		}
		n++
		if n%progressInterval == 0 {
			s.logger.Info().Str("pref", prefCode).Int("done", n).Int("total", total).Msg("creating dictionary")
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("service: failed to create dictionary: %w", err)
	}
	return n, nil
}

// Entry builds the dictionary entry of one parcel.
func (s *DictionaryCreator) Entry(rec models.FudeRecord) (addressindex.Entry, error) {
	city, err := s.cities.Elements(rec.CityCode)
	if err != nil {
		return addressindex.Entry{}, fmt.Errorf("service: %s (%s): %w", rec.CityCode, rec.City, err)
	}

	elements := make([]addressindex.Element, 0, len(city)+5)
	elements = append(elements, city...)
	if rec.Oaza != "" {
		elements = append(elements, addressindex.Element{Name: rec.Oaza, Level: addressindex.LevelOaza})
	}
	if rec.Chome != "" {
		elements = append(elements, addressindex.Element{Name: rec.Chome, Level: addressindex.LevelAza})
	}
	if rec.Aza != "" {
		elements = append(elements, addressindex.Element{Name: rec.Aza, Level: addressindex.LevelAza})
	}
	if m := fudeChibanPattern.FindStringSubmatch(rec.Chiban); m != nil {
		elements = append(elements, chiban.Candidate{Chiban: m[1] + "番地", Edaban: trimDash(m[2])}.Elements()...)
	}

	entry := addressindex.Entry{
		Elements: elements,
		Priority: addressindex.PriorityFude,
		Note:     addressindex.NoteFude + ":" + rec.Code,
	}
	if rec.Lon != nil {
		entry.X = *rec.Lon
	}
	if rec.Lat != nil {
		entry.Y = *rec.Lat
	}
	return entry, nil
}

func trimDash(s string) string {
	if s != "" && s[0] == '-' {
		return s[1:]
	}
	return s
}
