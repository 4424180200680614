package addressindex

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// AzaSkip controls whether a search may pass over an aza level element that is
// absent from the query text.
type AzaSkip int

const (
	AzaSkipOff AzaSkip = iota
	AzaSkipOn
	// AzaSkipAuto allows the omission only for aza nodes noted as omissible.
	AzaSkipAuto
)

func (a AzaSkip) String() string {
	switch a {
	case AzaSkipOn:
		return "on"
	case AzaSkipAuto:
		return "auto"
	default:
		return "off"
	}
}

// ParseAzaSkip parses "off", "on" or "auto". "no" is accepted as "off".
func ParseAzaSkip(s string) (AzaSkip, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "no", "false":
		return AzaSkipOff, nil
	case "on", "yes", "true":
		return AzaSkipOn, nil
	case "auto":
		return AzaSkipAuto, nil
	}
	return AzaSkipOff, fmt.Errorf("addressindex: invalid aza skip mode %q", s)
}

// SearchOptions restrict a single search. They are passed on every call; the
// index itself holds no search configuration.
type SearchOptions struct {
	// TargetArea lists area names or JIS codes, outermost first, e.g.
	// ["大分県", "日田市"] or ["44204"]. Empty means the whole index.
	TargetArea []string
	AzaSkip    AzaSkip
}

// Match is the best result of a search.
type Match struct {
	Node NodeID
	// Matched is the prefix of the query text consumed by the match.
	Matched string
}

type candidate struct {
	node NodeID
	pos  int
}

func (c candidate) better(than candidate) bool {
	return c.node != NoNode && (than.node == NoNode || c.pos > than.pos)
}

// Search returns the node matching the longest prefix of text inside the target
// area. Ties are resolved in favour of the node found first, which makes the
// result depend only on the text, the options and the index contents.
func (ix *Index) Search(text string, opts SearchOptions) (Match, bool) {
	if text == "" {
		return Match{Node: NoNode}, false
	}

	best := candidate{node: NoNode}
	for _, start := range ix.scope(opts.TargetArea) {
		pos := 0
		if start != NoNode {
			pos = ix.consumeLineage(start, text)
		}
		c := ix.descend(start, text, pos, opts.AzaSkip)
		if c.node == NoNode && pos > 0 {
			c = candidate{node: start, pos: pos}
		}
		if c.better(best) {
			best = c
		}
	}

	if best.node == NoNode {
		return Match{Node: NoNode}, false
	}
	return Match{Node: best.node, Matched: text[:best.pos]}, true
}

// scope returns the nodes a search starts from. NoNode stands for the virtual root.
func (ix *Index) scope(area []string) []NodeID {
	if len(area) == 0 {
		return []NodeID{NoNode}
	}

	var current []NodeID
	for i, a := range area {
		found := ix.areaNodes(a)
		if i == 0 {
			current = found
			continue
		}
		var within []NodeID
		for _, id := range found {
			if ix.under(id, current) {
				within = append(within, id)
			}
		}
		current = within
	}
	return current
}

func (ix *Index) areaNodes(area string) []NodeID {
	if isDigits(area) {
		switch len(area) {
		case 2:
			return ix.LookupByCode(NotePrefCode, area)
		case 5:
			return ix.LookupByCode(NoteCityCode, area)
		case 6:
			// check digit form of the municipality code
			return ix.LookupByCode(NoteCityCode, area[:5])
		}
		return nil
	}
	return ix.areas[area]
}

func (ix *Index) under(id NodeID, ancestors []NodeID) bool {
	for n := ix.Node(id); n != nil; n = ix.Node(n.Parent) {
		for _, a := range ancestors {
			if n.ID == a {
				return true
			}
		}
	}
	return false
}

// consumeLineage skips the names of the start node and its ancestors when the
// text repeats them, e.g. "日田市大字田島" searched inside ["大分県", "日田市"].
func (ix *Index) consumeLineage(start NodeID, text string) int {
	var chain []NodeID
	for n := ix.Node(start); n != nil; n = ix.Node(n.Parent) {
		chain = append(chain, n.ID)
	}
	pos := 0
	for i := len(chain) - 1; i >= 0; i-- {
		if n := ix.matchName(ix.Node(chain[i]), text[pos:]); n > 0 {
			pos += n
		}
	}
	return pos
}

func (ix *Index) childrenOf(parent NodeID) []NodeID {
	if parent == NoNode {
		return ix.roots
	}
	return ix.nodes[parent].Children
}

func (ix *Index) descend(parent NodeID, text string, pos int, skip AzaSkip) candidate {
	best := candidate{node: NoNode}
	if pos >= len(text) {
		return best
	}
	for _, id := range ix.childrenOf(parent) {
		child := &ix.nodes[id]
		if n := ix.matchName(child, text[pos:]); n > 0 {
			c := ix.descend(id, text, pos+n, skip)
			if c.node == NoNode {
				c = candidate{node: id, pos: pos + n}
			}
			if c.better(best) {
				best = c
			}
		}
	}
	for _, id := range ix.childrenOf(parent) {
		if !ix.skippable(&ix.nodes[id], skip) {
			continue
		}
		if c := ix.descend(id, text, pos, skip); c.better(best) {
			best = c
		}
	}
	return best
}

func (ix *Index) skippable(n *Node, skip AzaSkip) bool {
	switch n.Level {
	case LevelCounty:
		return true
	case LevelAza:
		switch skip {
		case AzaSkipOn:
			return true
		case AzaSkipAuto:
			return n.HasNote(NoteAzaOmitted)
		}
	}
	return false
}

// matchName returns the byte length of the longest surface form of the node name
// that prefixes text, or 0.
func (ix *Index) matchName(n *Node, text string) int {
	best := 0
	for _, form := range surfaceForms(n) {
		if len(form) <= best || !strings.HasPrefix(text, form) {
			continue
		}
		if endsWithDigit(form) && startsWithDigit(text[len(form):]) {
			continue
		}
		best = len(form)
	}
	return best
}

func surfaceForms(n *Node) []string {
	name := n.Name
	switch n.Level {
	case LevelOaza:
		bare := strings.TrimPrefix(name, "大字")
		return []string{"大字" + bare, bare}
	case LevelAza:
		bare := strings.TrimPrefix(strings.TrimPrefix(name, "小字"), "字")
		if bare == "" {
			return []string{name}
		}
		return []string{"小字" + bare, "字" + bare, bare}
	case LevelBlock:
		base := strings.TrimSuffix(strings.TrimSuffix(name, "番地"), "番")
		if base == "" {
			return []string{name}
		}
		return []string{base + "番地", base + "番", base + "-", base}
	}
	return []string{name}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func endsWithDigit(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsDigit(r)
}

func startsWithDigit(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsDigit(r)
}

// NodesByName returns the area nodes (prefecture to ward) with the given name, sorted by id.
func (ix *Index) NodesByName(name string) []NodeID {
	ids := append([]NodeID(nil), ix.areas[name]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
