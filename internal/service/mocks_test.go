package service

import (
	"context"
	"testing"

	"chiban-geocoder/internal/addressindex"
	"chiban-geocoder/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var oita = []string{"大分県", "日田市"}

func newTestIndex(t *testing.T) *addressindex.Index {
	t.Helper()
	ix, err := addressindex.FromLines(
		"大分県;1,!01,131.612,33.238,jisx0401:44",
		"大分県;1,日田市;3,!03,130.941,33.321,jisx0402:44204/postcode:8770000",
		"大分県;1,日田市;3,田島;5,畑江;6,583番地;7,8;8,!20,130.939,33.321,fude:12345",
		"大分県;1,日田市;3,田島;5,畑江;6,600番地;7,!20,130.941,33.323,fude:20000",
		"大分県;1,日田市;3,田島;5,畑江;6,45番地;7,!20,130.943,33.325,fude:45000",
		"大分県;1,中津市;3,!03,131.187,33.598,jisx0402:44203",
		"大分県;1,旧中津市;3,!03,131.187,33.598,jisx0402:44203/postcode:8710000",
		"大分県;1,佐伯市;3,!03,131.899,32.960,jisx0402:44205",
		"大分県;1,旧佐伯市;3,!03,131.899,32.960,jisx0402:44205",
		"熊本県;1,!01,130.741,32.790,jisx0401:43",
		"熊本県;1,熊本市;3,!03,130.741,32.803,jisx0402:43100",
	)
	require.NoError(t, err)
	return ix
}

// rowRecorder collects CSV records.
type rowRecorder struct {
	rows [][]string
	err  error
}

func (r *rowRecorder) Write(record []string) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, record)
	return nil
}

// MockRepository is a mock implementation of the repository interfaces.
// ForEach* calls feed the records given to Return to the callback.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CountBuildings(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ForEachBuilding(ctx context.Context, prefix string, fn func(models.BuildingRecord) error) error {
	args := m.Called(ctx, prefix)
	for _, rec := range args.Get(0).([]models.BuildingRecord) {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *MockRepository) CountLand(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ForEachLand(ctx context.Context, prefix string, fn func(models.LandRecord) error) error {
	args := m.Called(ctx, prefix)
	for _, rec := range args.Get(0).([]models.LandRecord) {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *MockRepository) CountChangeHistory(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ForEachChangeHistory(ctx context.Context, prefix string, fn func(models.ChangeHistoryRecord) error) error {
	args := m.Called(ctx, prefix)
	for _, rec := range args.Get(0).([]models.ChangeHistoryRecord) {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *MockRepository) CountFude(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ForEachFude(ctx context.Context, prefix string, fn func(models.FudeRecord) error) error {
	args := m.Called(ctx, prefix)
	for _, rec := range args.Get(0).([]models.FudeRecord) {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return args.Error(1)
}
