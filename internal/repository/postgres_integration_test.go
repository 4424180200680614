//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"chiban-geocoder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jackc/pgx/v5/pgxpool"
)

func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	ctx := context.Background()

	// Start PostgreSQL container with PostGIS
	req := testcontainers.ContainerRequest{
		Image:        "postgis/postgis:16-3.4",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	postgresC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		postgresC.Terminate(ctx)
	})

	host, err := postgresC.Host(ctx)
	require.NoError(t, err)

	port, err := postgresC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := "postgres://testuser:testpass@" + host + ":" + port.Port() + "/testdb?sslmode=disable"

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
	})

	_, err = pool.Exec(ctx, `
		CREATE EXTENSION IF NOT EXISTS postgis;

		CREATE TABLE building_master (
			bldg_id TEXT PRIMARY KEY,
			shikuchoson_code TEXT,
			shozai_oyobi_chiban TEXT
		);

		CREATE TABLE tochi_bango (
			市区町村コード TEXT,
			所在 TEXT,
			地番 TEXT,
			登録の日 DATE,
			土地id TEXT
		);

		CREATE TABLE tochi_original (
			市区町村コード TEXT,
			所在 TEXT,
			地番 TEXT,
			表示履歴地番 TEXT,
			変更履歴 TEXT,
			登録の日 DATE
		);

		CREATE TABLE fude_master (
			cd TEXT PRIMARY KEY,
			citycode TEXT,
			city TEXT,
			oaza TEXT,
			chome TEXT,
			aza TEXT,
			chiban TEXT,
			center GEOMETRY(POINT, 4326)
		);

		INSERT INTO building_master VALUES
		('B1', '44204', '日田市大字田島字畑江　５８３番地８'),
		('B2', '44204', NULL),
		('B3', '13101', '千代田区丸の内一丁目　１番地');

		INSERT INTO tochi_bango VALUES
		('44204', '日田市大字田島字畑江', '583-8', '2020-04-01', 'L1'),
		('44204', '日田市大字田島字畑江', '45', NULL, 'L2'),
		('13101', '千代田区丸の内一丁目', '1', NULL, 'L3');

		INSERT INTO tochi_original VALUES
		('44204', '日田市大字田島字畑江', '45', NULL, '46番、47番を合筆', '2019-01-01'),
		('44204', '日田市大字田島字畑江', '50-3', '50-3', '50番から分筆', '2021-01-01'),
		('44204', '日田市大字田島字畑江', '48', NULL, NULL, '2022-01-01');
	`)
	require.NoError(t, err)

	return pool
}

func TestRepository_Buildings(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	n, err := repo.CountBuildings(ctx, "44")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var got []models.BuildingRecord
	err = repo.ForEachBuilding(ctx, "44", func(rec models.BuildingRecord) error {
		got = append(got, rec)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.BuildingRecord{
		{BldgID: "B1", CityCode: "44204", ShozaiChiban: "日田市大字田島字畑江　５８３番地８"},
		{BldgID: "B2", CityCode: "44204", ShozaiChiban: ""},
	}, got)
}

func TestRepository_ForEachStopsOnCallbackError(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	repo := NewRepository(pool)

	calls := 0
	err := repo.ForEachBuilding(context.Background(), "", func(models.BuildingRecord) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

func TestRepository_Land(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	n, err := repo.CountLand(ctx, "44204")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var got []models.LandRecord
	err = repo.ForEachLand(ctx, "44204", func(rec models.LandRecord) error {
		got = append(got, rec)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[string]models.LandRecord{}
	for _, rec := range got {
		byID[rec.LandID] = rec
	}
	require.NotNil(t, byID["L1"].RegisteredAt)
	assert.Equal(t, time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC), byID["L1"].RegisteredAt.UTC())
	assert.Equal(t, "583-8", byID["L1"].Chiban)
	assert.Nil(t, byID["L2"].RegisteredAt)
}

func TestRepository_ForEachChangeHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	n, err := repo.CountChangeHistory(ctx, "44")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var got []models.ChangeHistoryRecord
	err = repo.ForEachChangeHistory(ctx, "44", func(rec models.ChangeHistoryRecord) error {
		got = append(got, rec)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// newest first
	assert.Equal(t, "50-3", got[0].Chiban)
	assert.Equal(t, "50-3", got[0].DisplayedChiban)
	assert.Equal(t, "45", got[1].Chiban)
	assert.Equal(t, "", got[1].DisplayedChiban)
	assert.Equal(t, "46番、47番を合筆", got[1].History)
}

func TestRepository_CopyFude(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	lon, lat := 130.943, 33.325
	records := []models.FudeRecord{
		{Code: "44204000450000", CityCode: "44204", City: "日田市", Oaza: "田島", Aza: "畑江", Chiban: "45", Lon: &lon, Lat: &lat},
		{Code: "44204005830008", CityCode: "44204", City: "日田市", Oaza: "田島", Aza: "畑江", Chiban: "583-8"},
	}

	n, err := repo.CopyFude(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := repo.CountFude(ctx, "44")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var got []models.FudeRecord
	err = repo.ForEachFude(ctx, "44204", func(rec models.FudeRecord) error {
		got = append(got, rec)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "44204000450000", got[0].Code)
	require.NotNil(t, got[0].Lon)
	assert.InDelta(t, lon, *got[0].Lon, 1e-9)
	assert.InDelta(t, lat, *got[0].Lat, 1e-9)
	assert.Equal(t, "583-8", got[1].Chiban)
	assert.Nil(t, got[1].Lon)
}
