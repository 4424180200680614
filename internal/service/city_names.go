package service

import (
	"errors"
	"strings"
	"sync"

	"chiban-geocoder/internal/addressindex"
	"chiban-geocoder/internal/chiban"

	"github.com/rs/zerolog"
)

// ErrCityNotRegistered is returned when a municipality code has no node in the
// address index.
var ErrCityNotRegistered = errors.New("service: municipality is not registered in the address index")

// AddressIndex is the address index as seen by the services.
type AddressIndex interface {
	chiban.AddressIndex
	LookupByCode(category, value string) []addressindex.NodeID
	Lineage(id addressindex.NodeID) []addressindex.Element
	FullName(id addressindex.NodeID) string
	CityCode(id addressindex.NodeID) string
}

// Codes that were renumbered when the municipality became (or merged into) a
// designated city. Registry data still carries the old code.
var cityCodeRemap = map[string]string{
	"14209": "14150", // 相模原市
	"27127": "27101", // 大阪市北区
	"43201": "43100", // 熊本市
}

// JIS X 0401
var prefectureNames = [...]string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県",
	"静岡県", "愛知県", "三重県", "滋賀県", "京都府", "大阪府", "兵庫県",
	"奈良県", "和歌山県", "鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県", "福岡県", "佐賀県", "長崎県",
	"熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

// CityNames maps municipality codes to the names of the enclosing address
// elements. Results are cached; it is safe for concurrent use.
type CityNames struct {
	index  AddressIndex
	logger zerolog.Logger

	mu    sync.Mutex
	cache map[string][]addressindex.Element
}

// NewCityNames creates a municipality lookup on index
func NewCityNames(index AddressIndex, logger zerolog.Logger) *CityNames {
	return &CityNames{
		index:  index,
		logger: logger,
		cache:  make(map[string][]addressindex.Element),
	}
}

// Elements returns the address elements from the prefecture down to the
// municipality with the given code, e.g. [大分県;1 日田市;3].
func (c *CityNames) Elements(code string) ([]addressindex.Element, error) {
	if len(code) > 5 {
		code = code[:5]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if els, ok := c.cache[code]; ok {
		if els == nil {
			return nil, ErrCityNotRegistered
		}
		return els, nil
	}

	els := c.lookup(code)
	c.cache[code] = els
	if els == nil {
		return nil, ErrCityNotRegistered
	}
	return els, nil
}

func (c *CityNames) lookup(code string) []addressindex.Element {
	if remapped, ok := cityCodeRemap[code]; ok {
		code = remapped
	}

	ids := c.index.LookupByCode(addressindex.NoteCityCode, code)
	if len(ids) == 0 {
		return nil
	}

	chosen := ids[0]
	found := false
	for _, id := range ids {
		if _, ok := c.index.Node(id).Tag(addressindex.NotePostcode); ok {
			chosen, found = id, true
			break
		}
	}
	if !found && len(ids) > 1 {
		candidates := make([]string, len(ids))
		for i, id := range ids {
			candidates[i] = c.index.Node(id).Name
		}
		c.logger.Warn().
			Str("code", code).
			Strs("candidates", candidates).
			Msg("municipality is ambiguous, using the first candidate")
	}
	return c.index.Lineage(chosen)
}

// Names returns the element names of Elements.
func (c *CityNames) Names(code string) ([]string, error) {
	els, err := c.Elements(code)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(els))
	for i, e := range els {
		names[i] = e.Name
	}
	return names, nil
}

// PrefName returns the prefecture name for a code whose first two digits are a
// JIS X 0401 prefecture code, or "" when unknown.
func (c *CityNames) PrefName(code string) string {
	if len(code) < 2 {
		return ""
	}
	for _, id := range c.index.LookupByCode(addressindex.NotePrefCode, code[:2]) {
		name := c.index.Node(id).Name
		if strings.HasSuffix(name, "都") || strings.HasSuffix(name, "道") ||
			strings.HasSuffix(name, "府") || strings.HasSuffix(name, "県") {
			return name
		}
	}

	n := int(code[0]-'0')*10 + int(code[1]-'0')
	if code[0] < '0' || code[0] > '9' || code[1] < '0' || code[1] > '9' || n < 1 || n > len(prefectureNames) {
		return ""
	}
	return prefectureNames[n-1]
}
