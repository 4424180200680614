package chiban

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"chiban-geocoder/internal/addressindex"
	"chiban-geocoder/internal/normalize"

	"github.com/rs/zerolog"
)

const (
	fragmentSeparator = "　"
	parcelSeparator   = "、"
	parcelMarker      = "番"
	buildingMarker    = "建物"
)

// "583地8" and "583" are written for "583番地8" and "583番地".
var abbreviatedChiban = regexp.MustCompile(`^([0-9０-９]+)地*([0-9０-９]*)$`)

// FragmentKind is the rule a notation fragment matched.
type FragmentKind int

const (
	// FragmentContext starts with a known enclosing area name and sets the district.
	FragmentContext FragmentKind = iota
	// FragmentForeignContext names a district of another municipality.
	FragmentForeignContext
	// FragmentParcels lists parcel numbers of the current district.
	FragmentParcels
	// FragmentDiscarded matched no rule.
	FragmentDiscarded
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentContext:
		return "context"
	case FragmentForeignContext:
		return "foreign_context"
	case FragmentParcels:
		return "parcels"
	}
	return "discarded"
}

// Reasons a fragment is discarded.
const (
	ReasonBuildingName = "building name"
	ReasonNoContext    = "no district before parcel list"
	ReasonUnknownArea  = "not an address"
)

// Fragment is the classification of one space separated part of a notation.
type Fragment struct {
	Kind FragmentKind
	// Text is the fragment after repair.
	Text string
	// Context is the district in effect after the fragment was read.
	Context string
	// Parcels holds the parcel strings emitted by a FragmentParcels.
	Parcels []string
	Reason  string
}

// SegmentOptions describe the municipality a notation belongs to.
type SegmentOptions struct {
	// Names lists the enclosing area names, prefecture first, e.g. ["大分県", "日田市"].
	Names   []string
	AzaSkip addressindex.AzaSkip
}

// Segmenter splits parcel notations.
type Segmenter struct {
	index  AddressIndex
	logger zerolog.Logger
}

// NewSegmenter creates a segmenter. The index is used to recognise districts of
// other municipalities.
func NewSegmenter(index AddressIndex, logger zerolog.Logger) *Segmenter {
	return &Segmenter{index: index, logger: logger}
}

// Segment returns one string per parcel of the notation, each prefixed with its
// district, e.g.
//
//	"日田市大字西有田字下スダリ　452番地4、447番地14"
//	-> ["日田市大字西有田字下スダリ452番地4", "日田市大字西有田字下スダリ447番地14"]
func (s *Segmenter) Segment(notation string, opts SegmentOptions) []string {
	var parcels []string
	for _, f := range s.Fragments(notation, opts) {
		parcels = append(parcels, f.Parcels...)
	}
	return parcels
}

// Fragments classifies every fragment of the notation in order.
func (s *Segmenter) Fragments(notation string, opts SegmentOptions) []Fragment {
	tokens := s.tokenize(notation)
	fragments := make([]Fragment, 0, len(tokens))
	context := ""
	for i, tok := range tokens {
		f := s.classify(tok, context, i == len(tokens)-1, opts)
		switch f.Kind {
		case FragmentDiscarded:
			if f.Reason != ReasonBuildingName {
				s.logger.Warn().Str("fragment", tok).Str("notation", notation).Str("reason", f.Reason).Msg("fragment discarded")
			}
		default:
			context = f.Context
		}
		fragments = append(fragments, f)
	}
	return fragments
}

func (s *Segmenter) tokenize(notation string) []string {
	tokens := strings.Split(notation, fragmentSeparator)
	for i, tok := range tokens {
		if repaired, ok := repairAbbreviated(tok); ok {
			s.logger.Warn().Str("from", tok).Str("to", repaired).Str("notation", notation).Msg(`"地" read as "番地"`)
			tokens[i] = repaired
		}
	}
	return tokens
}

func repairAbbreviated(tok string) (string, bool) {
	repaired := abbreviatedChiban.ReplaceAllString(tok, "${1}番地${2}")
	return repaired, repaired != tok
}

func (s *Segmenter) classify(tok, context string, last bool, opts SegmentOptions) Fragment {
	for _, name := range opts.Names {
		if name != "" && strings.HasPrefix(tok, name) {
			return Fragment{Kind: FragmentContext, Text: tok, Context: tok}
		}
	}

	if !strings.Contains(tok, parcelMarker) {
		if last || strings.HasPrefix(tok, buildingMarker) {
			return Fragment{Kind: FragmentDiscarded, Text: tok, Context: context, Reason: ReasonBuildingName}
		}
		if foreign, ok := s.foreignContext(tok, opts); ok {
			return Fragment{Kind: FragmentForeignContext, Text: tok, Context: foreign}
		}
		return Fragment{Kind: FragmentDiscarded, Text: tok, Context: context, Reason: ReasonUnknownArea}
	}

	if context == "" {
		return Fragment{Kind: FragmentDiscarded, Text: tok, Reason: ReasonNoContext}
	}

	f := Fragment{Kind: FragmentParcels, Text: tok, Context: context}
	for _, sub := range strings.Split(tok, parcelSeparator) {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}
		f.Parcels = append(f.Parcels, context+normalize.Numerals(sub))
	}
	return f
}

// foreignContext looks the fragment up in the whole prefecture. A match of at
// least three characters reaching oaza level is taken as a district of another
// municipality and rendered as "<pref>/<city>/<fragment>".
func (s *Segmenter) foreignContext(tok string, opts SegmentOptions) (string, bool) {
	var area []string
	if len(opts.Names) > 0 {
		area = opts.Names[:1]
	}
	m, ok := s.index.Search(tok, addressindex.SearchOptions{TargetArea: area, AzaSkip: opts.AzaSkip})
	if !ok {
		return "", false
	}
	node := s.index.Node(m.Node)
	if node == nil || utf8.RuneCountInString(m.Matched) < 3 || node.Level < addressindex.LevelOaza {
		return "", false
	}
	return fmt.Sprintf("%s/%s/%s", s.index.PrefName(m.Node), s.index.CityName(m.Node), tok), true
}
