// Package normalize cleans registry text before it is segmented or searched.
//
// Registry exports carry full-width digits, legacy numeral glyphs and characters
// that could not be represented in the export encoding. The latter appear as
// placeholders of the form "<8328>" holding a UTF-16 code unit in hex.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

var placeholderPattern = regexp.MustCompile(`<([0-9a-fA-F]+)>`)

// Full-width digits and the full-width full stop.
var foldable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0xff0e, Hi: 0xff0e, Stride: 1},
		{Lo: 0xff10, Hi: 0xff19, Stride: 1},
	},
}

var foldDigits = runes.If(runes.In(foldable), width.Fold, nil)

var middleDot = strings.NewReplacer("・", ".", "･", ".")

var legacyNumerals = strings.NewReplacer("壱", "一", "弐", "二", "参", "三")

// gaiji maps private use characters that the export tool failed to convert.
var gaiji = strings.NewReplacer("\uee3e", "縢")

// Normalize applies every normalization step, including legacy numerals.
func Normalize(text string) string {
	return Numerals(Record(text))
}

// Record repairs a raw registry field: placeholders are decoded, known gaiji are
// replaced, full-width digits and dots become ASCII. Legacy numerals are left alone
// because district names may legitimately contain them.
func Record(text string) string {
	text = DecodePlaceholders(text)
	text = RepairGaiji(text)
	return Width(text)
}

// Width converts full-width digits, the full-width full stop and middle dots to ASCII.
func Width(text string) string {
	folded, _, err := transform.String(foldDigits, text)
	if err != nil {
		log.Warn().Err(err).Str("text", text).Msg("width folding failed")
		folded = text
	}
	return middleDot.Replace(folded)
}

// Numerals replaces the legacy numerals 壱弐参 with 一二三.
func Numerals(text string) string {
	return legacyNumerals.Replace(text)
}

// RepairGaiji replaces characters from the fixed gaiji table.
func RepairGaiji(text string) string {
	return gaiji.Replace(text)
}

// DecodePlaceholders replaces every "<HEX>" placeholder with the character it encodes.
// A placeholder that does not hold a single valid UTF-16 code unit is kept as is.
func DecodePlaceholders(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		r, ok := decodeUnit(m[1 : len(m)-1])
		if !ok {
			log.Warn().Str("placeholder", m).Msg("cannot decode placeholder, kept as is")
			return m
		}
		return string(r)
	})
}

func decodeUnit(hex string) (rune, bool) {
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || v > 0xffff {
		return 0, false
	}
	r := rune(v)
	if utf16.IsSurrogate(r) {
		return 0, false
	}
	return r, true
}
