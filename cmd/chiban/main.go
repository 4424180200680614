package main

import (
	"context"
	"fmt"
	"os"

	"chiban-geocoder/internal/addressindex"
	"chiban-geocoder/internal/config"
	"chiban-geocoder/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Prefecture codes run from 01 (北海道) to 47 (沖縄県).
const prefCount = 47

var (
	cfg       config.Config
	configDir string
	dictDir   string
	outputDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chiban",
		Short: "Registry parcel notation tools",
		Long: `Links land registry parcel notations (地番) to cadastral parcel codes (筆コード)
and builds the address dictionaries used for the lookup.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(configDir)
			if err != nil {
				return err
			}
			if dictDir != "" {
				cfg.DictionaryDir = dictDir
			}
			config.SetupLogger(cfg.LogLevel)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config", "configs", "directory containing app.env")
	rootCmd.PersistentFlags().StringVar(&dictDir, "dict", "", "address dictionary directory (overrides DICTIONARY_DIR)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory (stdout when omitted, where applicable)")

	rootCmd.AddCommand(createBuildingCmd())
	rootCmd.AddCommand(createLandCmd())
	rootCmd.AddCommand(createDictionaryCmd())
	rootCmd.AddCommand(createGappitsuCmd())
	rootCmd.AddCommand(createResolveCmd())
	rootCmd.AddCommand(createSegmentCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// prefixes returns the code prefixes given on the command line, or every
// prefecture code.
func prefixes(args []string) []string {
	if len(args) > 0 {
		return args
	}
	codes := make([]string, 0, prefCount)
	for i := 1; i <= prefCount; i++ {
		codes = append(codes, fmt.Sprintf("%02d", i))
	}
	return codes
}

func loadIndex() (*addressindex.Index, error) {
	index, err := addressindex.LoadDir(cfg.DictionaryDir)
	if err != nil {
		return nil, fmt.Errorf("cannot load address dictionary %s: %w", cfg.DictionaryDir, err)
	}
	log.Info().Int("nodes", index.Len()).Str("dir", cfg.DictionaryDir).Msg("address index loaded")
	return index, nil
}

func openRepository(ctx context.Context) (*repository.Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DBSource)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("cannot connect to db: %w", err)
	}
	return repository.NewRepository(pool), pool.Close, nil
}
