package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"chiban-geocoder/internal/config"
	"chiban-geocoder/internal/models"
	"chiban-geocoder/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Columns of the fude master CSV, matched by header name.
var fudeCSVColumns = []string{"cd", "citycode", "city", "oaza", "chome", "aza", "chiban", "lon", "lat"}

func main() {
	file := flag.String("file", "", "Path to the fude master CSV file to import")
	configDir := flag.String("config", "configs", "Directory containing app.env")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	config.SetupLogger(cfg.LogLevel)

	if *file == "" {
		log.Fatal().Msg("--file flag is required")
	}

	log.Info().Str("file", *file).Msg("starting import")

	records, err := parseCSV(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot parse CSV")
	}
	log.Info().Int("records", len(records)).Msg("parsed")

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer pool.Close()

	if err := createTableIfNotExists(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("cannot create table")
	}

	repo := repository.NewRepository(pool)
	n, err := repo.CopyFude(ctx, records)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot insert records")
	}

	if err := verifyImport(ctx, repo, records); err != nil {
		log.Fatal().Err(err).Msg("import verification failed")
	}

	log.Info().Int64("records", n).Msg("successfully imported")
}

func parseCSV(filePath string) ([]models.FudeRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return readFudeCSV(file)
}

func readFudeCSV(r io.Reader) ([]models.FudeRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range fudeCSVColumns[:7] {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	field := func(record []string, col string) string {
		if i, ok := pos[col]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}
	coordinate := func(record []string, col string) (*float64, error) {
		s := field(record, col)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %s", col, s)
		}
		return &v, nil
	}

	var records []models.FudeRecord
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		lon, err := coordinate(record, "lon")
		if err != nil {
			return nil, err
		}
		lat, err := coordinate(record, "lat")
		if err != nil {
			return nil, err
		}

		records = append(records, models.FudeRecord{
			Code:     field(record, "cd"),
			CityCode: field(record, "citycode"),
			City:     field(record, "city"),
			Oaza:     field(record, "oaza"),
			Chome:    field(record, "chome"),
			Aza:      field(record, "aza"),
			Chiban:   field(record, "chiban"),
			Lon:      lon,
			Lat:      lat,
		})
	}

	return records, nil
}

func createTableIfNotExists(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
	CREATE EXTENSION IF NOT EXISTS postgis;
	CREATE TABLE IF NOT EXISTS fude_master (
		cd TEXT PRIMARY KEY,
		citycode TEXT NOT NULL,
		city TEXT,
		oaza TEXT,
		chome TEXT,
		aza TEXT,
		chiban TEXT,
		center GEOMETRY(POINT, 4326)
	);
	CREATE INDEX IF NOT EXISTS fude_master_citycode_idx ON fude_master (citycode);
	`
	_, err := pool.Exec(ctx, query)
	return err
}

// verifyImport checks that every prefecture of the imported records can be read back.
func verifyImport(ctx context.Context, repo *repository.Repository, records []models.FudeRecord) error {
	expected := map[string]int{}
	for _, rec := range records {
		if len(rec.Code) >= 2 {
			expected[rec.Code[:2]]++
		}
	}
	for pref, want := range expected {
		got, err := repo.CountFude(ctx, pref)
		if err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}
		if got < want {
			return fmt.Errorf("record count mismatch for %s: expected at least %d, got %d", pref, want, got)
		}
	}
	return nil
}
