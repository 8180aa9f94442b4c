package verification

import "strings"

// knownInstitutions holds lowercase name fragments of institutions and
// ministries whose diplomas are recognized without an explicit MINFOP stamp.
// Matching is containment-based, so abbreviations and full names both work.
var knownInstitutions = []string{
	"université de yaoundé",
	"university of yaounde",
	"université de douala",
	"university of douala",
	"université de dschang",
	"université de ngaoundéré",
	"université de maroua",
	"université de bamenda",
	"university of bamenda",
	"université de buea",
	"university of buea",
	"institut universitaire de technologie",
	"école nationale supérieure polytechnique",
	"école normale supérieure",
	"minfop",
	"ministère de l'emploi et de la formation professionnelle",
	"minesup",
	"ministère de l'enseignement supérieur",
	"minesec",
	"minedub",
}

// IsKnownInstitution reports whether the extracted issuer string names a
// recognized institution or ministry. Empty input never matches.
func IsKnownInstitution(institution string) bool {
	normalized := strings.ToLower(strings.TrimSpace(institution))
	if normalized == "" {
		return false
	}

	for _, fragment := range knownInstitutions {
		if strings.Contains(normalized, fragment) {
			return true
		}
	}

	return false
}
