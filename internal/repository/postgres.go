package repository

import (
	"context"
	"fmt"

	"chiban-geocoder/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the registry tables from PostgreSQL.
// Every query is restricted to municipality codes starting with a prefix
// (a 2-digit prefecture code or a 5-digit city code).
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func likePrefix(prefix string) string {
	return prefix + "%"
}

func (r *Repository) count(ctx context.Context, sql, prefix string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, sql, likePrefix(prefix)).Scan(&n); err != nil {
		return 0, fmt.Errorf("repository: failed to count rows: %w", err)
	}
	return n, nil
}

// CountBuildings returns the number of building master rows under prefix.
func (r *Repository) CountBuildings(ctx context.Context, prefix string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM building_master WHERE shikuchoson_code LIKE $1`, prefix)
}

// ForEachBuilding streams building master rows under prefix to fn.
// Iteration stops at the first error returned by fn.
func (r *Repository) ForEachBuilding(ctx context.Context, prefix string, fn func(models.BuildingRecord) error) error {
	sql := `
		SELECT
			bldg_id,
			shikuchoson_code,
			COALESCE(shozai_oyobi_chiban, '')
		FROM building_master
		WHERE shikuchoson_code LIKE $1
	`

	rows, err := r.db.Query(ctx, sql, likePrefix(prefix))
	if err != nil {
		return fmt.Errorf("repository: failed to query buildings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.BuildingRecord
		if err := rows.Scan(&rec.BldgID, &rec.CityCode, &rec.ShozaiChiban); err != nil {
			return fmt.Errorf("repository: failed to scan building: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating buildings: %w", err)
	}
	return nil
}

// CountLand returns the number of land number rows under prefix.
func (r *Repository) CountLand(ctx context.Context, prefix string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM tochi_bango WHERE 市区町村コード LIKE $1`, prefix)
}

// ForEachLand streams land number rows under prefix to fn.
func (r *Repository) ForEachLand(ctx context.Context, prefix string, fn func(models.LandRecord) error) error {
	sql := `
		SELECT
			市区町村コード,
			COALESCE(所在, ''),
			COALESCE(地番, ''),
			登録の日,
			COALESCE(土地id, '')
		FROM tochi_bango
		WHERE 市区町村コード LIKE $1
	`

	rows, err := r.db.Query(ctx, sql, likePrefix(prefix))
	if err != nil {
		return fmt.Errorf("repository: failed to query land numbers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.LandRecord
		if err := rows.Scan(&rec.CityCode, &rec.Shozai, &rec.Chiban, &rec.RegisteredAt, &rec.LandID); err != nil {
			return fmt.Errorf("repository: failed to scan land number: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating land numbers: %w", err)
	}
	return nil
}

// CountChangeHistory returns the number of land rows under prefix that carry a
// change history.
func (r *Repository) CountChangeHistory(ctx context.Context, prefix string) (int, error) {
	return r.count(ctx,
		`SELECT count(*) FROM tochi_original WHERE 市区町村コード LIKE $1 AND 変更履歴 IS NOT NULL`,
		prefix)
}

// ForEachChangeHistory streams land rows carrying a change history, newest
// registration first.
func (r *Repository) ForEachChangeHistory(ctx context.Context, prefix string, fn func(models.ChangeHistoryRecord) error) error {
	sql := `
		SELECT
			市区町村コード,
			COALESCE(所在, ''),
			COALESCE(地番, ''),
			COALESCE(表示履歴地番, ''),
			変更履歴,
			登録の日
		FROM tochi_original
		WHERE 市区町村コード LIKE $1 AND 変更履歴 IS NOT NULL
		ORDER BY 登録の日 DESC
	`

	rows, err := r.db.Query(ctx, sql, likePrefix(prefix))
	if err != nil {
		return fmt.Errorf("repository: failed to query change histories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.ChangeHistoryRecord
		err := rows.Scan(
			&rec.CityCode,
			&rec.Shozai,
			&rec.Chiban,
			&rec.DisplayedChiban,
			&rec.History,
			&rec.RegisteredAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan change history: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating change histories: %w", err)
	}
	return nil
}

// CountFude returns the number of fude master rows whose code starts with prefix.
func (r *Repository) CountFude(ctx context.Context, prefix string) (int, error) {
	return r.count(ctx, `SELECT count(cd) FROM fude_master WHERE cd LIKE $1`, prefix)
}

// ForEachFude streams fude master rows whose code starts with prefix.
func (r *Repository) ForEachFude(ctx context.Context, prefix string, fn func(models.FudeRecord) error) error {
	sql := `
		SELECT
			cd,
			citycode,
			COALESCE(city, ''),
			COALESCE(oaza, ''),
			COALESCE(chome, ''),
			COALESCE(aza, ''),
			COALESCE(chiban, ''),
			ST_X(center) AS lon,
			ST_Y(center) AS lat
		FROM fude_master
		WHERE cd LIKE $1
		ORDER BY cd
	`

	rows, err := r.db.Query(ctx, sql, likePrefix(prefix))
	if err != nil {
		return fmt.Errorf("repository: failed to query fude master: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.FudeRecord
		err := rows.Scan(
			&rec.Code,
			&rec.CityCode,
			&rec.City,
			&rec.Oaza,
			&rec.Chome,
			&rec.Aza,
			&rec.Chiban,
			&rec.Lon,
			&rec.Lat,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan fude: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating fude master: %w", err)
	}
	return nil
}

// CopyFude bulk loads fude master rows through a temporary table, since COPY
// cannot call PostGIS constructors for the center point.
func (r *Repository) CopyFude(ctx context.Context, records []models.FudeRecord) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		CREATE TEMP TABLE fude_import (
			cd TEXT,
			citycode TEXT,
			city TEXT,
			oaza TEXT,
			chome TEXT,
			aza TEXT,
			chiban TEXT,
			lon DOUBLE PRECISION,
			lat DOUBLE PRECISION
		) ON COMMIT DROP
	`)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to create import table: %w", err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"fude_import"},
		[]string{"cd", "citycode", "city", "oaza", "chome", "aza", "chiban", "lon", "lat"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			return []any{rec.Code, rec.CityCode, rec.City, rec.Oaza, rec.Chome, rec.Aza, rec.Chiban, rec.Lon, rec.Lat}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to copy fude rows: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO fude_master (cd, citycode, city, oaza, chome, aza, chiban, center)
		SELECT
			cd, citycode, city, oaza, chome, aza, chiban,
			CASE WHEN lon IS NULL OR lat IS NULL THEN NULL
				ELSE ST_SetSRID(ST_MakePoint(lon, lat), 4326) END
		FROM fude_import
	`)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert fude rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("repository: failed to commit fude import: %w", err)
	}
	return n, nil
}
