package ai

import (
	"testing"

	"github.com/talentbridge/diploma-verifier/internal/verification"
)

func TestParseExtractionValidJSON(t *testing.T) {
	raw := `{
		"name": "Jean Mbarga",
		"date": "2019-07-12",
		"field_of_study": "Génie Civil",
		"institution": "Université de Douala",
		"has_minfop_stamp": true,
		"has_apostille_stamp": false,
		"diploma_type": "Licence",
		"confidence": 85
	}`

	ext := ParseExtraction(raw)

	if ext.HolderName != "Jean Mbarga" {
		t.Fatalf("unexpected holder name %q", ext.HolderName)
	}
	if ext.FieldOfStudy != "Génie Civil" {
		t.Fatalf("unexpected field of study %q", ext.FieldOfStudy)
	}
	if !ext.HasMinfopStamp || ext.HasApostilleStamp {
		t.Fatalf("unexpected stamp flags: %+v", ext)
	}
	if ext.Confidence != 85 {
		t.Fatalf("unexpected confidence %d", ext.Confidence)
	}
}

func TestParseExtractionFencedJSON(t *testing.T) {
	raw := "```json\n{\"name\": \"Ada\", \"confidence\": 70}\n```"

	ext := ParseExtraction(raw)

	if ext.HolderName != "Ada" {
		t.Fatalf("expected fenced JSON to parse, got %+v", ext)
	}
	if ext.Confidence != 70 {
		t.Fatalf("unexpected confidence %d", ext.Confidence)
	}
}

func TestParseExtractionObjectBuriedInProse(t *testing.T) {
	raw := `Here is what I found in the document:
{"institution": "MINFOP", "has_apostille_stamp": "yes", "confidence": "60"}
Let me know if you need anything else.`

	ext := ParseExtraction(raw)

	if ext.Institution != "MINFOP" {
		t.Fatalf("expected institution from embedded object, got %q", ext.Institution)
	}
	if !ext.HasApostilleStamp {
		t.Fatalf("expected string 'yes' to coerce to true")
	}
	if ext.Confidence != 60 {
		t.Fatalf("expected string confidence to coerce to 60, got %d", ext.Confidence)
	}
}

func TestParseExtractionBracesInsideStrings(t *testing.T) {
	raw := `noise {"name": "a {weird} name", "confidence": 50} trailing`

	ext := ParseExtraction(raw)

	if ext.HolderName != "a {weird} name" {
		t.Fatalf("expected braces inside strings to be skipped, got %q", ext.HolderName)
	}
}

func TestParseExtractionGarbageNeverPanics(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"prose", "I cannot process this document."},
		{"empty", ""},
		{"unbalanced", `{"name": "x"`},
		{"array", `[1, 2, 3]`},
		{"bare fence", "```"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ext := ParseExtraction(tc.raw)
			if *ext != (verification.Extraction{}) {
				t.Fatalf("expected zero extraction for %q, got %+v", tc.raw, ext)
			}
		})
	}
}

func TestParseExtractionClampsConfidence(t *testing.T) {
	if ext := ParseExtraction(`{"confidence": 250}`); ext.Confidence != 100 {
		t.Fatalf("expected confidence clamped to 100, got %d", ext.Confidence)
	}
	if ext := ParseExtraction(`{"confidence": -4}`); ext.Confidence != 0 {
		t.Fatalf("expected confidence clamped to 0, got %d", ext.Confidence)
	}
}
