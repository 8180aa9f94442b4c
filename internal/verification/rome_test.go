package verification

import "testing"

func TestMapToOccupationPrimaryMatch(t *testing.T) {
	match := MapToOccupation("génie civil", "Licence", 80)

	if match.Code != "F1106" {
		t.Fatalf("expected code F1106, got %q", match.Code)
	}
	if match.Label == "" {
		t.Fatalf("expected label to be populated")
	}
	if match.MatchPercent != 90 {
		t.Fatalf("expected match percent 90 (80+10), got %d", match.MatchPercent)
	}
}

func TestMapToOccupationPrimaryCeiling(t *testing.T) {
	match := MapToOccupation("informatique", "", 92)

	if match.MatchPercent != 95 {
		t.Fatalf("expected match percent capped at 95, got %d", match.MatchPercent)
	}
}

func TestMapToOccupationFallbackToDiplomaType(t *testing.T) {
	match := MapToOccupation("études générales", "BTS Comptabilité", 80)

	if match.Code != "M1203" {
		t.Fatalf("expected code M1203 from diploma type, got %q", match.Code)
	}
	if match.MatchPercent != 75 {
		t.Fatalf("expected match percent capped at 75 on fallback, got %d", match.MatchPercent)
	}
}

func TestMapToOccupationFallbackNoBonus(t *testing.T) {
	match := MapToOccupation("", "CAP Couture", 40)

	if match.Code != "B1803" {
		t.Fatalf("expected code B1803, got %q", match.Code)
	}
	if match.MatchPercent != 40 {
		t.Fatalf("fallback match must not apply the +10 bonus, got %d", match.MatchPercent)
	}
}

func TestMapToOccupationNoMatch(t *testing.T) {
	match := MapToOccupation("unknown", "", 10)

	if !match.IsZero() {
		t.Fatalf("expected zero match, got %+v", match)
	}
	if match.MatchPercent != 0 {
		t.Fatalf("expected match percent 0, got %d", match.MatchPercent)
	}
}

// Table order decides ties, not position in the input string: "développement"
// appears first in the input below, but "génie civil" is listed earlier in
// the table and must win.
func TestMapToOccupationTableOrderPrecedence(t *testing.T) {
	match := MapToOccupation("développement et génie civil", "", 50)

	if match.Code != "F1106" {
		t.Fatalf("expected earlier table entry F1106 to win, got %q", match.Code)
	}
}

func TestMapToOccupationSpecificBeforeGeneric(t *testing.T) {
	match := MapToOccupation("mécanique automobile", "", 50)

	if match.Code != "I1604" {
		t.Fatalf("expected I1604, got %q", match.Code)
	}
}

func TestMapToOccupationClampsConfidence(t *testing.T) {
	cases := []struct {
		name       string
		confidence int
		want       int
	}{
		{"negative", -10, 10},
		{"above hundred", 250, 95},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			match := MapToOccupation("informatique", "", tc.confidence)
			if match.MatchPercent != tc.want {
				t.Fatalf("confidence %d: expected match percent %d, got %d", tc.confidence, tc.want, match.MatchPercent)
			}
		})
	}
}
