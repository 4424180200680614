package addressindex

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Dictionary priorities. A smaller number wins when two lines address the same node.
const (
	PriorityFude         = 20
	PrioritySupplemental = 99
)

// missingCoordinate is written when a line has no representative point.
const missingCoordinate = 999.9

// Entry is one line of a dictionary file:
//
//	大分県;1,日田市;3,田島;5,畑江;6,583番地;7,8;8,!20,130.939000,33.321000,fude:12345
type Entry struct {
	Elements []Element
	Priority int
	X        float64
	Y        float64
	Note     string
}

// Notes splits the note field into its "/" separated tags.
func (e Entry) Notes() []string {
	if e.Note == "" {
		return nil
	}
	return strings.Split(e.Note, "/")
}

// FormatLine renders an entry in dictionary file format. Elements with an empty
// name are omitted and a zero coordinate is written as 999.9.
func FormatLine(e Entry) string {
	var b strings.Builder
	for _, el := range e.Elements {
		if el.Name == "" {
			continue
		}
		fmt.Fprintf(&b, "%s;%d,", el.Name, el.Level)
	}
	x, y := e.X, e.Y
	if x == 0 {
		x = missingCoordinate
	}
	if y == 0 {
		y = missingCoordinate
	}
	fmt.Fprintf(&b, "!%02d,%.6f,%.6f", e.Priority, x, y)
	if e.Note != "" {
		b.WriteString(",")
		b.WriteString(e.Note)
	}
	return b.String()
}

// ParseLine parses a single dictionary line.
func ParseLine(line string) (Entry, error) {
	fields := strings.Split(line, ",")
	var e Entry
	i := 0
	for ; i < len(fields); i++ {
		f := fields[i]
		if strings.HasPrefix(f, "!") {
			break
		}
		sep := strings.LastIndex(f, ";")
		if sep < 0 {
			return Entry{}, fmt.Errorf("addressindex: element without level: %q", f)
		}
		level, err := strconv.Atoi(f[sep+1:])
		if err != nil {
			return Entry{}, fmt.Errorf("addressindex: invalid level in %q: %w", f, err)
		}
		e.Elements = append(e.Elements, Element{Name: f[:sep], Level: Level(level)})
	}
	if i+2 >= len(fields) {
		return Entry{}, fmt.Errorf("addressindex: missing priority or coordinate: %q", line)
	}

	var err error
	if e.Priority, err = strconv.Atoi(fields[i][1:]); err != nil {
		return Entry{}, fmt.Errorf("addressindex: invalid priority %q: %w", fields[i], err)
	}
	if e.X, err = strconv.ParseFloat(fields[i+1], 64); err != nil {
		return Entry{}, fmt.Errorf("addressindex: invalid longitude %q: %w", fields[i+1], err)
	}
	if e.Y, err = strconv.ParseFloat(fields[i+2], 64); err != nil {
		return Entry{}, fmt.Errorf("addressindex: invalid latitude %q: %w", fields[i+2], err)
	}
	if e.X == missingCoordinate {
		e.X = 0
	}
	if e.Y == missingCoordinate {
		e.Y = 0
	}
	if i+3 < len(fields) {
		e.Note = strings.Join(fields[i+3:], ",")
	}
	return e, nil
}

// AddEntry inserts a parsed dictionary line.
func (ix *Index) AddEntry(e Entry) (NodeID, error) {
	return ix.Add(e.Elements, e.Priority, e.X, e.Y, e.Notes())
}

// Load reads dictionary lines from r. Blank lines and lines starting with '#'
// are ignored. It returns the number of lines added.
func (ix *Index) Load(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	n, lineno := 0, 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, err := ParseLine(line)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", lineno, err)
		}
		if _, err := ix.AddEntry(e); err != nil {
			return n, fmt.Errorf("line %d: %w", lineno, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("addressindex: failed to read dictionary: %w", err)
	}
	return n, nil
}

// LoadFile reads one dictionary file.
func (ix *Index) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("addressindex: failed to open dictionary: %w", err)
	}
	defer f.Close()

	n, err := ix.Load(f)
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// LoadDir reads every *.txt file of dir in lexical order.
func LoadDir(dir string) (*Index, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("addressindex: failed to list dictionaries: %w", err)
	}
	sort.Strings(paths)

	ix := New()
	for _, p := range paths {
		n, err := ix.LoadFile(p)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", p).Int("lines", n).Msg("dictionary loaded")
	}
	log.Info().Str("dir", dir).Int("files", len(paths)).Int("nodes", ix.Len()).Msg("address index ready")
	return ix, nil
}

// FromLines builds an index from dictionary lines.
func FromLines(lines ...string) (*Index, error) {
	ix := New()
	if _, err := ix.Load(strings.NewReader(strings.Join(lines, "\n"))); err != nil {
		return nil, err
	}
	return ix, nil
}
