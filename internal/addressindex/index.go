// Package addressindex is an in-memory address hierarchy used to geocode parcel
// notations. Nodes live in an arena and refer to each other by NodeID.
//
// An Index is built once (Add / Load) and is read-only afterwards, so a loaded
// index may be searched from several goroutines.
package addressindex

import (
	"fmt"
	"strings"
)

// NodeID addresses a node in the arena of an Index.
type NodeID int32

// NoNode is the NodeID of a missing node.
const NoNode NodeID = -1

// Level is the depth class of an address element.
type Level int

const (
	LevelUnknown Level = 0
	LevelPref    Level = 1
	LevelCounty  Level = 2
	LevelCity    Level = 3
	LevelWard    Level = 4
	LevelOaza    Level = 5
	LevelAza     Level = 6
	LevelBlock   Level = 7
	LevelBranch  Level = 8
)

// Well-known note categories.
const (
	NoteFude       = "fude"
	NotePrefCode   = "jisx0401"
	NoteCityCode   = "jisx0402"
	NotePostcode   = "postcode"
	NoteAzaOmitted = "aza_omissible"
)

// Node is an address element.
type Node struct {
	ID       NodeID
	Name     string
	Level    Level
	Parent   NodeID
	Children []NodeID
	X        float64
	Y        float64
	Notes    []string
	Priority int
}

// Note returns the notes joined the way they appear in dictionary files.
func (n *Node) Note() string {
	return strings.Join(n.Notes, "/")
}

// Tag returns the value of the first "category:value" note.
func (n *Node) Tag(category string) (string, bool) {
	prefix := category + ":"
	for _, note := range n.Notes {
		if strings.HasPrefix(note, prefix) {
			return note[len(prefix):], true
		}
	}
	return "", false
}

// HasNote reports whether the node carries the note or a note of that category.
func (n *Node) HasNote(note string) bool {
	for _, v := range n.Notes {
		if v == note || strings.HasPrefix(v, note+":") {
			return true
		}
	}
	return false
}

// Element is a (name, level) pair, one step of an address path.
type Element struct {
	Name  string
	Level Level
}

func (e Element) String() string {
	return fmt.Sprintf("%s;%d", e.Name, e.Level)
}

type childKey struct {
	parent NodeID
	name   string
	level  Level
}

// Index is the arena of address nodes.
type Index struct {
	nodes    []Node
	roots    []NodeID
	children map[childKey]NodeID
	codes    map[string][]NodeID
	areas    map[string][]NodeID
}

// New creates an empty index
func New() *Index {
	return &Index{
		children: make(map[childKey]NodeID),
		codes:    make(map[string][]NodeID),
		areas:    make(map[string][]NodeID),
	}
}

// Len returns the number of nodes.
func (ix *Index) Len() int {
	return len(ix.nodes)
}

// Node returns the node with the given id, or nil.
func (ix *Index) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(ix.nodes) {
		return nil
	}
	return &ix.nodes[id]
}

// Roots returns the top level nodes in insertion order.
func (ix *Index) Roots() []NodeID {
	return ix.roots
}

// Add inserts the address path described by elements. Missing intermediate nodes
// are created. The terminal node takes the coordinate and notes of the line unless
// it already holds a line with a smaller (stronger) priority number.
func (ix *Index) Add(elements []Element, priority int, x, y float64, notes []string) (NodeID, error) {
	parent := NoNode
	for _, e := range elements {
		if e.Name == "" {
			continue
		}
		if e.Level < LevelPref || e.Level > LevelBranch {
			return NoNode, fmt.Errorf("addressindex: invalid level %d for %q", e.Level, e.Name)
		}
		key := childKey{parent: parent, name: e.Name, level: e.Level}
		id, ok := ix.children[key]
		if !ok {
			id = ix.create(parent, e, x, y)
			ix.children[key] = id
		}
		parent = id
	}
	if parent == NoNode {
		return NoNode, fmt.Errorf("addressindex: empty address path")
	}

	n := &ix.nodes[parent]
	switch {
	case n.Priority == 0 || priority < n.Priority:
		ix.unindexNotes(n)
		n.Priority = priority
		n.X, n.Y = x, y
		n.Notes = append([]string(nil), notes...)
		ix.indexNotes(n, n.Notes)
	case priority == n.Priority:
		var added []string
		for _, note := range notes {
			if !contains(n.Notes, note) {
				n.Notes = append(n.Notes, note)
				added = append(added, note)
			}
		}
		ix.indexNotes(n, added)
	}
	return parent, nil
}

func (ix *Index) create(parent NodeID, e Element, x, y float64) NodeID {
	id := NodeID(len(ix.nodes))
	ix.nodes = append(ix.nodes, Node{
		ID:     id,
		Name:   e.Name,
		Level:  e.Level,
		Parent: parent,
		X:      x,
		Y:      y,
	})
	if parent == NoNode {
		ix.roots = append(ix.roots, id)
	} else {
		p := &ix.nodes[parent]
		p.Children = append(p.Children, id)
	}
	if e.Level <= LevelWard {
		ix.areas[e.Name] = append(ix.areas[e.Name], id)
	}
	return id
}

func (ix *Index) indexNotes(n *Node, notes []string) {
	for _, note := range notes {
		if strings.Contains(note, ":") {
			ix.codes[note] = append(ix.codes[note], n.ID)
		}
	}
}

func (ix *Index) unindexNotes(n *Node) {
	for _, note := range n.Notes {
		ids := ix.codes[note]
		for i, id := range ids {
			if id == n.ID {
				ix.codes[note] = append(ids[:i:i], ids[i+1:]...)
				break
			}
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// LookupByCode returns the nodes tagged "category:value" in insertion order.
func (ix *Index) LookupByCode(category, value string) []NodeID {
	ids := ix.codes[category+":"+value]
	out := make([]NodeID, len(ids))
	copy(out, ids)
	return out
}

// Lineage returns the elements from the root down to id.
func (ix *Index) Lineage(id NodeID) []Element {
	var rev []Element
	for n := ix.Node(id); n != nil; n = ix.Node(n.Parent) {
		rev = append(rev, Element{Name: n.Name, Level: n.Level})
	}
	out := make([]Element, len(rev))
	for i, e := range rev {
		out[len(rev)-1-i] = e
	}
	return out
}

// FullName concatenates the names from the root down to id.
func (ix *Index) FullName(id NodeID) string {
	var b strings.Builder
	for _, e := range ix.Lineage(id) {
		b.WriteString(e.Name)
	}
	return b.String()
}

// Ancestor returns the nearest node at or above id whose level is in levels.
func (ix *Index) Ancestor(id NodeID, levels ...Level) NodeID {
	for n := ix.Node(id); n != nil; n = ix.Node(n.Parent) {
		for _, l := range levels {
			if n.Level == l {
				return n.ID
			}
		}
	}
	return NoNode
}

// PrefName returns the prefecture name of the node.
func (ix *Index) PrefName(id NodeID) string {
	if n := ix.Node(ix.Ancestor(id, LevelPref)); n != nil {
		return n.Name
	}
	return ""
}

// CityName returns the municipality name of the node.
func (ix *Index) CityName(id NodeID) string {
	if n := ix.Node(ix.Ancestor(id, LevelCity)); n != nil {
		return n.Name
	}
	return ""
}

// CityCode returns the nearest jisx0402 code at or above the node.
func (ix *Index) CityCode(id NodeID) string {
	for n := ix.Node(id); n != nil; n = ix.Node(n.Parent) {
		if code, ok := n.Tag(NoteCityCode); ok {
			return code
		}
	}
	return ""
}
