package scene

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Scene values the generation workflow understands. The form UI shows
// accented labels ("Batería") but the workflow consumes lowercase,
// accent-free identifiers.
const (
	Teclado  = "teclado"
	Guitarra = "guitarra"
	Bateria  = "bateria"
	Voz      = "voz"
)

var known = map[string]bool{
	Teclado:  true,
	Guitarra: true,
	Bateria:  true,
	Voz:      true,
}

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases the input and strips diacritics, so "Batería" becomes
// "bateria".
func Fold(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	folded, _, err := transform.String(foldChain, lowered)
	if err != nil {
		return lowered
	}
	return folded
}

// Normalize folds the input and reports whether it names a known scene.
// Unknown scenes are still returned folded; the workflow tolerates them and
// the caller decides whether to reject.
func Normalize(s string) (string, bool) {
	folded := Fold(s)
	return folded, known[folded]
}
