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

// ErrNotFound is returned when no parcel carries the requested code.
var ErrNotFound = errors.New("service: parcel not found")

// ParcelService answers parcel lookups against a loaded address index.
type ParcelService struct {
	index     AddressIndex
	cities    *CityNames
	segmenter *chiban.Segmenter
	resolver  *chiban.Resolver
	azaSkip   addressindex.AzaSkip
}

// NewParcelService creates a new parcel service
func NewParcelService(index AddressIndex, azaSkip addressindex.AzaSkip, logger zerolog.Logger) *ParcelService {
	return &ParcelService{
		index:     index,
		cities:    NewCityNames(index, logger),
		segmenter: chiban.NewSegmenter(index, logger),
		resolver:  chiban.NewResolver(index, logger),
		azaSkip:   azaSkip,
	}
}

// Resolve returns the parcels a single parcel string stands for. area scopes
// the search (names or JIS codes, outermost first); empty searches the whole
// index.
func (s *ParcelService) Resolve(ctx context.Context, query string, area []string, exact bool) ([]models.ParcelLocation, error) {
	if query == "" {
		return nil, fmt.Errorf("service: query cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := normalize.Normalize(query)
	res := s.resolver.Resolve(text, chiban.ResolveOptions{
		Area:           area,
		ExactMatchOnly: exact,
		AzaSkip:        s.azaSkip,
	})

	locations := make([]models.ParcelLocation, 0, len(res))
	for _, e := range res {
		locations = append(locations, s.location(chiban.Local(text), e))
	}
	return locations, nil
}

// Segment splits a registry parcel notation of the municipality cityCode into
// parcel strings.
func (s *ParcelService) Segment(ctx context.Context, notation, cityCode string) ([]string, error) {
	if notation == "" {
		return nil, fmt.Errorf("service: notation cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names, err := s.cities.Names(cityCode)
	if err != nil {
		return nil, fmt.Errorf("service: city %s: %w", cityCode, err)
	}

	parcels := s.segmenter.Segment(normalize.Record(notation), chiban.SegmentOptions{
		Names:   names,
		AzaSkip: s.azaSkip,
	})
	if parcels == nil {
		parcels = []string{}
	}
	return parcels, nil
}

// FindFude returns the parcel carrying the given parcel code.
func (s *ParcelService) FindFude(ctx context.Context, code string) (*models.ParcelLocation, error) {
	if code == "" {
		return nil, fmt.Errorf("service: code cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := s.index.LookupByCode(addressindex.NoteFude, code)
	if len(ids) == 0 {
		return nil, ErrNotFound
	}

	loc := s.location("", chiban.Entry{Code: code, Node: ids[0], Status: chiban.StatusDirect})
	return &loc, nil
}

func (s *ParcelService) location(chibanText string, e chiban.Entry) models.ParcelLocation {
	loc := models.ParcelLocation{
		Chiban:   chibanText,
		FudeCode: e.Code,
		Status:   int(e.Status),
	}
	if node := s.index.Node(e.Node); node != nil {
		loc.Address = s.index.FullName(e.Node)
		loc.CityCode = s.index.CityCode(e.Node)
		loc.Level = int(node.Level)
		loc.Longitude = node.X
		loc.Latitude = node.Y
	}
	return loc
}
