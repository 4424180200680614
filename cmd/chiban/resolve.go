package main

import (
	"fmt"

	"chiban-geocoder/internal/addressindex"
	"chiban-geocoder/internal/chiban"
	"chiban-geocoder/internal/normalize"
	"chiban-geocoder/internal/service"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func createResolveCmd() *cobra.Command {
	var (
		area    []string
		exact   bool
		azaSkip string
		dump    bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <chiban>...",
		Short: "Resolve parcel strings to parcel codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skip, err := parseAzaSkipFlag(azaSkip)
			if err != nil {
				return err
			}
			index, err := loadIndex()
			if err != nil {
				return err
			}

			resolver := chiban.NewResolver(index, log.Logger)
			opts := chiban.ResolveOptions{Area: area, ExactMatchOnly: exact, AzaSkip: skip}
			out := cmd.OutOrStdout()

			for _, arg := range args {
				text := normalize.Normalize(arg)
				res := resolver.Resolve(text, opts)
				if dump {
					spew.Fdump(out, res)
					continue
				}
				for _, e := range res {
					address := ""
					if e.Node != addressindex.NoNode {
						address = index.FullName(e.Node)
					}
					fmt.Fprintf(out, "%s\t%s\t%s\t%d\n", text, e.Code, address, e.Status)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&area, "area", nil, "area names or JIS codes, outermost first")
	cmd.Flags().BoolVar(&exact, "exact", false, "reject codes reached by a partial match")
	cmd.Flags().StringVar(&azaSkip, "aza-skip", "", "aza omission: on, off or auto (default from AZA_SKIP)")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the raw resolution")
	return cmd
}

func createSegmentCmd() *cobra.Command {
	var (
		city    string
		azaSkip string
		dump    bool
	)

	cmd := &cobra.Command{
		Use:   "segment <notation>...",
		Short: "Split registry parcel notations into parcel strings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skip, err := parseAzaSkipFlag(azaSkip)
			if err != nil {
				return err
			}
			index, err := loadIndex()
			if err != nil {
				return err
			}

			names, err := service.NewCityNames(index, log.Logger).Names(city)
			if err != nil {
				return fmt.Errorf("city %s: %w", city, err)
			}

			segmenter := chiban.NewSegmenter(index, log.Logger)
			opts := chiban.SegmentOptions{Names: names, AzaSkip: skip}
			out := cmd.OutOrStdout()

			for _, arg := range args {
				notation := normalize.Record(arg)
				if dump {
					spew.Fdump(out, segmenter.Fragments(notation, opts))
					continue
				}
				for _, p := range segmenter.Segment(notation, opts) {
					fmt.Fprintln(out, p)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "JIS X 0402 municipality code of the notation")
	cmd.Flags().StringVar(&azaSkip, "aza-skip", "", "aza omission: on, off or auto (default from AZA_SKIP)")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the classified fragments")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}

func parseAzaSkipFlag(s string) (addressindex.AzaSkip, error) {
	if s == "" {
		s = cfg.AzaSkip
	}
	return addressindex.ParseAzaSkip(s)
}
