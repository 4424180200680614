// Package chiban turns registry parcel notations (地番) into cadastral parcel
// codes (筆コード).
//
// A Segmenter splits a raw "所在及び地番" field into one string per parcel, a
// Resolver maps each string onto the address index, and a Reconstructor derives
// the parcel numbers that existed before a merge (合筆) from change history text.
package chiban

import (
	"strings"
	"sync"

	"chiban-geocoder/internal/addressindex"

	"github.com/rs/zerolog"
)

// AddressIndex is the part of the address index used by this package.
type AddressIndex interface {
	Search(text string, opts addressindex.SearchOptions) (addressindex.Match, bool)
	Node(id addressindex.NodeID) *addressindex.Node
	PrefName(id addressindex.NodeID) string
	CityName(id addressindex.NodeID) string
}

// Status classifies how a parcel string was linked to a parcel code.
type Status int

const (
	// StatusUnresolved: the notation could not be resolved to a parcel; the code is empty.
	StatusUnresolved Status = -1
	// StatusDirect: the matched node carries the code.
	StatusDirect Status = 0
	// StatusChildren: exact parcel match without a code; the codes of its branches are used.
	StatusChildren Status = 1
	// StatusSibling is reserved. Guessing codes from the siblings of an unmatched
	// branch proved wrong too often and is not done.
	StatusSibling Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusDirect:
		return "direct"
	case StatusChildren:
		return "children"
	case StatusSibling:
		return "sibling"
	}
	return "unknown"
}

// Entry is one parcel code a notation resolved to.
type Entry struct {
	Code   string
	Node   addressindex.NodeID
	Status Status
}

// Resolution lists the entries of one notation in a stable order. Codes are unique.
type Resolution []Entry

// Get returns the entry with the given code.
func (r Resolution) Get(code string) (Entry, bool) {
	for _, e := range r {
		if e.Code == code {
			return e, true
		}
	}
	return Entry{}, false
}

// ByCode returns the entries keyed by code.
func (r Resolution) ByCode() map[string]Entry {
	m := make(map[string]Entry, len(r))
	for _, e := range r {
		m[e.Code] = e
	}
	return m
}

func (r Resolution) add(e Entry) Resolution {
	if _, ok := r.Get(e.Code); ok {
		return r
	}
	return append(r, e)
}

// ResolveOptions scope one resolution.
type ResolveOptions struct {
	// Area lists area names or JIS codes, outermost first.
	Area []string
	// ExactMatchOnly rejects a coded node reached by a partial match, e.g. the parent
	// parcel of a branch that is not in the index.
	ExactMatchOnly bool
	AzaSkip        addressindex.AzaSkip
}

// Resolver maps parcel strings to parcel codes. It is safe for concurrent use.
type Resolver struct {
	index  AddressIndex
	logger zerolog.Logger

	mu    sync.Mutex
	codes map[addressindex.NodeID]string
}

// NewResolver creates a resolver on top of index
func NewResolver(index AddressIndex, logger zerolog.Logger) *Resolver {
	return &Resolver{
		index:  index,
		logger: logger,
		codes:  make(map[addressindex.NodeID]string),
	}
}

// SplitComposite splits a "<pref>/<city>/<local>" notation produced for parcels
// that lie in another municipality.
func SplitComposite(chiban string) (pref, city, local string, ok bool) {
	parts := strings.SplitN(chiban, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", chiban, false
	}
	return parts[0], parts[1], parts[2], true
}

// Local strips the composite prefix, if any.
func Local(chiban string) string {
	if pos := strings.LastIndex(chiban, "/"); pos >= 0 {
		return chiban[pos+1:]
	}
	return chiban
}

// Resolve searches chiban in the index and returns the parcel codes it stands for.
func (r *Resolver) Resolve(chiban string, opts ResolveOptions) Resolution {
	area, text := opts.Area, chiban
	if pref, city, local, ok := SplitComposite(chiban); ok {
		area, text = []string{pref, city}, local
	}

	m, ok := r.index.Search(text, addressindex.SearchOptions{TargetArea: area, AzaSkip: opts.AzaSkip})
	if !ok {
		return Resolution{{Code: "", Node: addressindex.NoNode, Status: StatusUnresolved}}
	}

	node := r.index.Node(m.Node)
	exact := len(m.Matched) == len(text)

	if code := r.fudeCode(node); code != "" {
		if opts.ExactMatchOnly && !exact {
			return Resolution{{Code: "", Node: node.ID, Status: StatusUnresolved}}
		}
		return Resolution{{Code: code, Node: node.ID, Status: StatusDirect}}
	}

	if node.Level < addressindex.LevelBlock {
		return Resolution{{Code: "", Node: node.ID, Status: StatusUnresolved}}
	}

	if !exact {
		r.logger.Debug().Str("chiban", chiban).Str("matched", m.Matched).Msg("branch not found under uncoded parcel")
		return Resolution{}
	}

	res := Resolution{}
	for _, id := range node.Children {
		child := r.index.Node(id)
		if code := r.fudeCode(child); code != "" {
			res = res.add(Entry{Code: code, Node: id, Status: StatusChildren})
		}
	}
	return res
}

func (r *Resolver) fudeCode(n *addressindex.Node) string {
	if n == nil {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.codes[n.ID]; ok {
		return code
	}
	code, _ := n.Tag(addressindex.NoteFude)
	r.codes[n.ID] = code
	return code
}
