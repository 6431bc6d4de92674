package fixup

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"mediacatalog/models"
)

// maxDigitRuns is the bail-out threshold from spec §4.5: "bail out on
// excessive digit runs (>50) to prevent overflow".
const maxDigitRuns = 50

// leadingArticles is checked longest-match-first so "The " is stripped
// before the bare "[" case could ever apply to it.
var leadingArticles = []string{"The ", "An ", "A ", "[", "(", "'", "\""}

// sortKeys synthesizes or normalizes the five *_sort fields. A
// user-provided sort tag is NFD-normalized as-is; otherwise one is
// synthesized from the corresponding plain field (spec §4.5 pass 3).
func sortKeys(mfi *models.MediaFile) {
	mfi.TitleSort = sortField(mfi.TitleSort, mfi.Title)
	mfi.ArtistSort = sortField(mfi.ArtistSort, mfi.Artist)
	mfi.AlbumSort = sortField(mfi.AlbumSort, mfi.Album)
	mfi.AlbumArtistSort = sortField(mfi.AlbumArtistSort, mfi.AlbumArtist)
	mfi.ComposerSort = sortField(mfi.ComposerSort, mfi.Composer)
}

func sortField(tag, plain string) string {
	if tag != "" {
		return norm.NFD.String(tag)
	}
	if plain == "" {
		return ""
	}
	return norm.NFD.String(synthesizeSortKey(plain))
}

// synthesizeSortKey strips a leading article/bracket/quote and
// zero-pads embedded digit runs to 5 characters so "a2", "a10", "a21"
// sort lexicographically in the right order.
func synthesizeSortKey(s string) string {
	for _, a := range leadingArticles {
		if strings.HasPrefix(s, a) {
			s = s[len(a):]
			break
		}
	}
	return zeroPadDigitRuns(s)
}

func zeroPadDigitRuns(s string) string {
	runes := []rune(s)
	var b strings.Builder
	i := 0
	for i < len(runes) {
		if !unicode.IsDigit(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && unicode.IsDigit(runes[j]) {
			j++
		}
		digits := string(runes[i:j])
		if len(digits) > maxDigitRuns {
			// Excessive digit run: bail out and leave unpadded rather
			// than risk overflow building the padded string.
			b.WriteString(digits)
		} else {
			b.WriteString(padDigits(digits))
		}
		i = j
	}
	return b.String()
}

func padDigits(digits string) string {
	if len(digits) >= 5 {
		return digits
	}
	return strings.Repeat("0", 5-len(digits)) + digits
}
