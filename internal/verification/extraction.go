// Package verification contains the pure decision logic of the diploma
// verification pipeline: institution matching, occupational code mapping and
// the final status decision. It has no I/O and no external dependencies, so
// every function here is deterministic and trivially testable.
package verification

// Extraction is the best-effort structured record produced by the document
// extractor. A zero-value Extraction is a valid "nothing extracted" result and
// always decides to pending.
type Extraction struct {
	HolderName        string `json:"name"`
	Date              string `json:"date"`
	FieldOfStudy      string `json:"field_of_study"`
	Institution       string `json:"institution"`
	HasMinfopStamp    bool   `json:"has_minfop_stamp"`
	HasApostilleStamp bool   `json:"has_apostille_stamp"`
	DiplomaType       string `json:"diploma_type"`
	// Confidence is the extractor's self-reported confidence in [0,100].
	// It is an untrusted weighting signal, never a gate on its own.
	Confidence int `json:"confidence"`
}
