package main

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"chiban-geocoder/internal/models"
	"chiban-geocoder/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func createBuildingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "building [code-prefix...]",
		Short: "Attach parcel codes to the building registry",
		Long: `Segments the 所在及び地番 notation of every building and resolves each parcel.
Writes tatemono_shozaichi.csv to the output directory, or CSV to stdout.
Without arguments all prefectures are processed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			index, err := loadIndex()
			if err != nil {
				return err
			}
			repo, closeDB, err := openRepository(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			cleaner := service.NewBuildingCleaner(repo, index, service.NewCityNames(index, log.Logger), log.Logger)
			return writeCSV("tatemono_shozaichi.csv", models.BuildingParcelHeader, func(w *csv.Writer) error {
				for _, prefix := range prefixes(args) {
					n, err := cleaner.Clean(ctx, prefix, w)
					if err != nil {
						return err
					}
					if n > 0 {
						log.Info().Str("prefix", prefix).Int("rows", n).Msg("buildings cleaned")
					}
				}
				return nil
			})
		},
	}
}

func createLandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "land [code-prefix...]",
		Short: "Attach parcel codes to the land number table",
		Long: `Resolves 所在 + 地番 of every land record; only direct hits are written.
Writes tochi_bango.csv to the output directory, or CSV to stdout.
Without arguments all prefectures are processed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			index, err := loadIndex()
			if err != nil {
				return err
			}
			repo, closeDB, err := openRepository(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			cleaner := service.NewLandCleaner(repo, index, service.NewCityNames(index, log.Logger), log.Logger)
			return writeCSV("tochi_bango.csv", models.LandParcelHeader, func(w *csv.Writer) error {
				for _, prefix := range prefixes(args) {
					n, err := cleaner.Clean(ctx, prefix, w)
					if err != nil {
						return err
					}
					if n > 0 {
						log.Info().Str("prefix", prefix).Int("rows", n).Msg("land numbers cleaned")
					}
				}
				return nil
			})
		},
	}
}

// writeCSV runs fn on a CSV writer for name in the output directory, or on
// stdout when no output directory is set. The header is written first.
func writeCSV(name string, header []string, fn func(w *csv.Writer) error) error {
	var out io.Writer = os.Stdout
	if outputDir != "" {
		path := filepath.Join(outputDir, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
		log.Info().Str("path", path).Msg("writing results")
	}

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
