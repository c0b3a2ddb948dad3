package models

// Verdict is the outcome of screening a photo's content.
type Verdict string

const (
	VerdictClear      Verdict = "CLEAR"
	VerdictBlocked    Verdict = "BLOCKED"
	VerdictUnscreened Verdict = "UNSCREENED"
)

// ScreeningFlag is one content category a detector matched on a photo.
// Score is the detector's confidence in percent.
type ScreeningFlag struct {
	Category string  `json:"category"`
	Parent   string  `json:"parent,omitempty"`
	Score    float64 `json:"score"`
}

// TopLevel returns the root category of the flag.
func (f ScreeningFlag) TopLevel() string {
	if f.Parent != "" {
		return f.Parent
	}
	return f.Category
}

// ScreeningResult is attached to a pending upload once its content has been
// checked. Unscreened photos are accepted and left for the registry's own
// review.
type ScreeningResult struct {
	Verdict   Verdict         `json:"verdict"`
	Note      string          `json:"note,omitempty"`
	Flags     []ScreeningFlag `json:"flags,omitempty"`
	BlockedBy []string        `json:"blockedBy,omitempty"`
	TopScore  float64         `json:"topScore,omitempty"`
}

// Blocked reports whether the photo must not be uploaded.
func (r *ScreeningResult) Blocked() bool {
	return r != nil && r.Verdict == VerdictBlocked
}
