package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"chiban-geocoder/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// targetPrefsFile lists the prefectures a dictionary was written for. Its
// extension keeps it out of the *.txt files loaded as dictionaries.
const targetPrefsFile = "target_prefs.list"

func createDictionaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dictionary",
		Short: "Create the parcel dictionary from the cadastral map",
		Long: `Writes NN_chiban.txt per prefecture with one line per parcel of fude_master,
tagged fude:<code>. The address dictionary must contain every municipality.`,
		Args: cobra.NoArgs,
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

			dir := outputOrCurrent()
			creator := service.NewDictionaryCreator(repo, service.NewCityNames(index, log.Logger), log.Logger)

			var targets []string
			for _, pref := range prefixes(nil) {
				path := filepath.Join(dir, pref+"_chiban.txt")
				n, err := writeDictionary(path, func(w io.Writer) (int, error) {
					return creator.Create(ctx, pref, w)
				})
				if err != nil {
					return err
				}
				if n > 0 {
					log.Info().Str("path", path).Int("lines", n).Msg("dictionary written")
					targets = append(targets, pref)
				}
			}

			codes := strings.Join(targets, " ")
			if err := os.WriteFile(filepath.Join(dir, targetPrefsFile), []byte(codes+"\n"), 0o644); err != nil {
				return err
			}
			log.Info().Str("prefs", codes).Msg("target prefectures")
			return nil
		},
	}
}

func createGappitsuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gappitsu",
		Short: "Create the merged parcel dictionary from change histories",
		Long: `Writes NN_chiban_gappitsu.txt per prefecture with aliases for parcel numbers
erased by merges (合筆). The address dictionary must already contain the
parcel dictionary created by the dictionary command.`,
		Args: cobra.NoArgs,
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

			dir := outputOrCurrent()
			creator := service.NewGappitsuCreator(repo, index, log.Logger)

			for _, pref := range prefixes(nil) {
				path := filepath.Join(dir, pref+"_chiban_gappitsu.txt")
				n, err := writeDictionary(path, func(w io.Writer) (int, error) {
					return creator.Create(ctx, pref, w)
				})
				if err != nil {
					return err
				}
				if n > 0 {
					log.Info().Str("path", path).Int("lines", n).Msg("merge dictionary written")
				}
			}
			return nil
		},
	}
}

func outputOrCurrent() string {
	if outputDir == "" {
		return "."
	}
	return outputDir
}

// writeDictionary creates path, fills it with create and removes it again when
// nothing was written.
func writeDictionary(path string, create func(io.Writer) (int, error)) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	w := bufio.NewWriter(f)
	n, err := create(w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}

	if n == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return 0, err
		}
	}
	return n, nil
}
