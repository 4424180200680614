package chiban

import (
	"regexp"
	"strconv"
	"strings"

	"chiban-geocoder/internal/addressindex"
	"chiban-geocoder/internal/models"
	"chiban-geocoder/internal/normalize"

	"github.com/rs/zerolog"
)

var (
	// "12番3ないし12番7分筆 ... 15番2、16番を合筆": only the part after the last
	// subdivision (分筆) names merged parcels.
	mergePattern = regexp.MustCompile(`^(.*分筆)?(.*)を合筆`)
	// 12番3 / 同番4 / 本番 / 12番3ないし同番7 / 12番ないし15番
	refPattern = regexp.MustCompile(`(同|本|\d+)番(\d*)(ないし(同|本|\d+)番(\d*))?`)
)

const (
	refSame = "同"
	refThis = "本"
)

// Candidate is a parcel number that existed before a merge.
type Candidate struct {
	// Chiban is the parcel number with its "番地" suffix, e.g. "45番地".
	Chiban string
	// Edaban is the branch number, empty when the parcel had none.
	Edaban string
}

func (c Candidate) String() string {
	return c.Chiban + c.Edaban
}

// Elements returns the parcel part of an address path.
func (c Candidate) Elements() []addressindex.Element {
	els := []addressindex.Element{{Name: c.Chiban, Level: addressindex.LevelBlock}}
	if c.Edaban != "" {
		els = append(els, addressindex.Element{Name: c.Edaban, Level: addressindex.LevelBranch})
	}
	return els
}

// MergeBody returns the part of a change history that lists the merged parcels.
func MergeBody(history string) (string, bool) {
	m := mergePattern.FindStringSubmatch(history)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// Reconstructor generates dictionary entries that map parcel numbers erased by
// merges onto the parcel code of the parcel they were merged into.
//
// Records must be fed newest first. The last literal parcel number seen is kept
// across records to resolve "同番" references; call Reset between batches.
type Reconstructor struct {
	resolver *Resolver
	index    AddressIndex
	logger   zerolog.Logger

	curChiban string
}

// NewReconstructor creates a reconstructor using resolver for lookups
func NewReconstructor(resolver *Resolver, index AddressIndex, logger zerolog.Logger) *Reconstructor {
	return &Reconstructor{resolver: resolver, index: index, logger: logger}
}

// Reset forgets the last seen parcel number.
func (r *Reconstructor) Reset() {
	r.curChiban = ""
}

// CurrentChiban returns the last literal parcel number seen.
func (r *Reconstructor) CurrentChiban() string {
	return r.curChiban
}

// Candidates expands the parcel references of a merge body. baseChiban is the
// parcel number (without branch) of the record, used for "本番".
func (r *Reconstructor) Candidates(body, baseChiban string) []Candidate {
	var out []Candidate
	for _, m := range refPattern.FindAllStringSubmatch(body, -1) {
		ref, branch, toRef, toBranch := m[1], m[2], m[4], m[5]

		switch {
		case m[3] == "":
			out = append(out, r.candidate(ref, branch, baseChiban))

		case branch != "":
			// 12番3ないし12番7, or 12番3ないし7番 for branches 3 to 7 of parcel 12
			upper := toBranch
			if upper == "" {
				upper = toRef
			}
			from, errFrom := strconv.Atoi(branch)
			until, errUntil := strconv.Atoi(upper)
			if errFrom != nil || errUntil != nil {
				r.logger.Warn().Str("reference", m[0]).Msg("cannot expand branch range")
				continue
			}
			for b := from; b <= until; b++ {
				out = append(out, r.candidate(ref, strconv.Itoa(b), baseChiban))
			}

		default:
			from, errFrom := strconv.Atoi(ref)
			until, errUntil := strconv.Atoi(toRef)
			if errFrom != nil || errUntil != nil {
				r.logger.Warn().Str("reference", m[0]).Msg("cannot expand parcel range")
				continue
			}
			for p := from; p <= until; p++ {
				out = append(out, r.candidate(strconv.Itoa(p), "", baseChiban))
			}
		}

		if ref[0] >= '0' && ref[0] <= '9' {
			r.curChiban = ref
		}
	}
	return out
}

func (r *Reconstructor) candidate(ref, branch, baseChiban string) Candidate {
	switch ref {
	case refThis:
		ref = baseChiban
	case refSame:
		ref = r.curChiban
		if ref == "" {
			ref = baseChiban
		}
	}
	return Candidate{Chiban: ref + "番地", Edaban: branch}
}

// Reconstruct returns the supplementary dictionary entries for one change history
// record. Candidates that still resolve directly are left out: a later
// subdivision has given them a parcel of their own.
func (r *Reconstructor) Reconstruct(rec models.ChangeHistoryRecord) []addressindex.Entry {
	body, ok := MergeBody(normalize.Record(rec.History))
	if !ok {
		return nil
	}

	shozai := normalize.Record(rec.Shozai)
	current := normalize.Record(rec.Chiban)
	candidates := r.Candidates(body, honban(current))

	if rec.DisplayedChiban != "" {
		current = normalize.Record(rec.DisplayedChiban)
	}
	opts := ResolveOptions{
		Area:           []string{rec.CityCode},
		ExactMatchOnly: true,
		AzaSkip:        addressindex.AzaSkipOff,
	}

	var out []addressindex.Entry
	for _, e := range r.resolver.Resolve(shozai+current, opts) {
		if e.Status != StatusDirect {
			continue
		}
		node := r.index.Node(e.Node)
		lineage := r.lineage(e.Node)

		for _, c := range candidates {
			if r.stillResolvable(shozai+c.String(), opts) {
				r.logger.Debug().Str("chiban", shozai+c.String()).Msg("merged parcel has been re-established, skipped")
				continue
			}
			elements := make([]addressindex.Element, 0, len(lineage)+2)
			elements = append(elements, lineage...)
			elements = append(elements, c.Elements()...)
			out = append(out, addressindex.Entry{
				Elements: elements,
				Priority: addressindex.PrioritySupplemental,
				X:        node.X,
				Y:        node.Y,
				Note:     node.Note(),
			})
		}
	}
	return out
}

// stillResolvable reports whether the first resolution of chiban is a direct hit.
func (r *Reconstructor) stillResolvable(chiban string, opts ResolveOptions) bool {
	res := r.resolver.Resolve(chiban, opts)
	return len(res) > 0 && res[0].Status == StatusDirect
}

// lineage collects the address elements down to aza level, outermost first.
func (r *Reconstructor) lineage(id addressindex.NodeID) []addressindex.Element {
	var rev []addressindex.Element
	for n := r.index.Node(id); n != nil; n = r.index.Node(n.Parent) {
		if n.Level <= addressindex.LevelAza {
			rev = append(rev, addressindex.Element{Name: n.Name, Level: n.Level})
		}
	}
	out := make([]addressindex.Element, len(rev))
	for i, e := range rev {
		out[len(rev)-1-i] = e
	}
	return out
}

// honban drops the branch of a "123-4" parcel number.
func honban(chiban string) string {
	if pos := strings.LastIndex(chiban, "-"); pos >= 0 {
		return chiban[:pos]
	}
	return chiban
}
