package verification

import "strings"

// OccupationMatch is the result of mapping a field of study to a ROME
// occupational code. The zero value means "no match" and keeps MatchPercent
// at 0 for downstream scoring.
type OccupationMatch struct {
	Code         string
	Label        string
	MatchPercent int
}

func (m OccupationMatch) IsZero() bool {
	return m.Code == ""
}

type occupationEntry struct {
	keyword string
	code    string
	label   string
}

// occupationTable maps field-of-study keyword fragments to ROME codes.
// Order is load-bearing: the first fragment found wins, so specific keywords
// (e.g. "génie civil", "mécanique automobile") must stay ahead of the generic
// ones that would shadow them.
var occupationTable = []occupationEntry{
	{"génie civil", "F1106", "Ingénierie et études du BTP"},
	{"btp", "F1106", "Ingénierie et études du BTP"},
	{"architecture", "F1101", "Architecture du BTP et du paysage"},
	{"topographie", "F1107", "Mesures topographiques"},
	{"maçonnerie", "F1703", "Maçonnerie"},
	{"électrotechnique", "F1602", "Électricité bâtiment"},
	{"électricité", "F1602", "Électricité bâtiment"},
	{"génie informatique", "M1805", "Études et développement informatique"},
	{"informatique", "M1805", "Études et développement informatique"},
	{"réseaux", "I1307", "Installation et maintenance télécoms et courants faibles"},
	{"télécommunications", "I1307", "Installation et maintenance télécoms et courants faibles"},
	{"soins infirmiers", "J1506", "Soins infirmiers généralistes"},
	{"infirmier", "J1506", "Soins infirmiers généralistes"},
	{"aide-soignant", "J1501", "Soins d'hygiène, de confort du patient"},
	{"pharmacie", "J1202", "Pharmacie"},
	{"médecine", "J1102", "Médecine généraliste et spécialisée"},
	{"mécanique automobile", "I1604", "Mécanique automobile et entretien de véhicules"},
	{"mécanique", "I1604", "Mécanique automobile et entretien de véhicules"},
	{"soudure", "H2913", "Soudage manuel"},
	{"soudage", "H2913", "Soudage manuel"},
	{"chaudronnerie", "H2902", "Chaudronnerie - tôlerie"},
	{"menuiserie", "H2206", "Réalisation de menuiserie bois et tonnellerie"},
	{"logistique", "N1303", "Intervention technique d'exploitation logistique"},
	{"transport", "N1301", "Conception et organisation de la chaîne logistique"},
	{"comptabilité", "M1203", "Comptabilité"},
	{"finance", "M1201", "Analyse et ingénierie financière"},
	{"banque", "C1206", "Gestion de clientèle bancaire"},
	{"gestion", "M1205", "Direction administrative et financière"},
	{"marketing", "M1705", "Marketing"},
	{"communication", "E1103", "Communication"},
	{"ressources humaines", "M1502", "Développement des ressources humaines"},
	{"droit", "K1903", "Défense et conseil juridique"},
	{"agronomie", "A1303", "Ingénierie en agriculture et environnement naturel"},
	{"agriculture", "A1301", "Conseil et assistance technique en agriculture"},
	{"élevage", "A1407", "Élevage bovin ou équin"},
	{"hôtellerie", "G1703", "Réception en hôtellerie"},
	{"restauration", "G1602", "Personnel de cuisine"},
	{"cuisine", "G1602", "Personnel de cuisine"},
	{"couture", "B1803", "Réalisation de vêtements sur mesure"},
	{"coiffure", "D1202", "Coiffure"},
	{"enseignement", "K2106", "Enseignement des écoles"},
	{"éducation", "K2104", "Éducation et surveillance au sein d'établissements d'enseignement"},
	{"développement", "M1805", "Études et développement informatique"},
}

const (
	// primaryMatchCeiling caps the match percent when the field of study
	// itself contains a keyword.
	primaryMatchCeiling = 95
	primaryMatchBonus   = 10
	// fallbackMatchCeiling caps the match percent when only the diploma
	// type matched. A weaker signal, so no bonus and a lower ceiling.
	fallbackMatchCeiling = 75
)

// MapToOccupation resolves a free-text field of study to a ROME code using
// first-match table lookup. When the field of study yields nothing, the
// diploma type is scanned with a lower confidence ceiling. An empty
// OccupationMatch is returned when neither matches.
func MapToOccupation(fieldOfStudy, diplomaType string, confidence int) OccupationMatch {
	confidence = clampPercent(confidence)

	if entry, ok := lookupOccupation(fieldOfStudy); ok {
		return OccupationMatch{
			Code:         entry.code,
			Label:        entry.label,
			MatchPercent: min(primaryMatchCeiling, confidence+primaryMatchBonus),
		}
	}

	if entry, ok := lookupOccupation(diplomaType); ok {
		return OccupationMatch{
			Code:         entry.code,
			Label:        entry.label,
			MatchPercent: min(fallbackMatchCeiling, confidence),
		}
	}

	return OccupationMatch{}
}

func lookupOccupation(text string) (occupationEntry, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return occupationEntry{}, false
	}

	for _, entry := range occupationTable {
		if strings.Contains(normalized, entry.keyword) {
			return entry, true
		}
	}

	return occupationEntry{}, false
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
