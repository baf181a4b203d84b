package inventory

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

var folder = cases.Fold()

// normalizeName trims a free-text name and composes it to NFC, so that
// "männlich" typed on two keyboards maps to the same lookup row.
func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// fold returns the case-folded, composed form used for loose comparisons.
func fold(s string) string {
	return folder.String(normalizeName(s))
}

var genderAliases = map[string]entities.Gender{
	"m":        entities.GenderMale,
	"male":     entities.GenderMale,
	"männlich": entities.GenderMale,
	"f":        entities.GenderFemale,
	"female":   entities.GenderFemale,
	"weiblich": entities.GenderFemale,
}

// parseGender accepts the English and German spellings used by the lab sheets.
func parseGender(s string) (entities.Gender, bool) {
	g, ok := genderAliases[fold(s)]
	return g, ok
}

var titleCaser = cases.Title(language.English)

// genderLabel is the display form used in exports
func genderLabel(g *entities.Gender) string {
	if g == nil {
		return ""
	}
	return titleCaser.String(string(*g))
}

// joinTargets joins target names into the comma-joined column format.
// Names are kept case-sensitive and in order; empty names are dropped.
func joinTargets(names []string) string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = normalizeName(n); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, ", ")
}

// SplitTargets splits a comma-joined target column back into names.
func SplitTargets(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
