package policy

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Status is the canonical moderation state of a business record.
type Status string

const (
	StatusRejected Status = "REJECTED"
	StatusApproved Status = "APPROVED"
	StatusPending  Status = "PENDING"
	StatusUnknown  Status = "UNKNOWN"
)

// statusSynonyms maps every spelling the registry has been seen to use onto a
// canonical state. Keys are normalized with normalizeStatusKey.
var statusSynonyms = map[string]Status{
	"REJECTED":  StatusRejected,
	"RECHAZADO": StatusRejected,
	"DENIED":    StatusRejected,

	"APPROVED":  StatusApproved,
	"APROBADO":  StatusApproved,
	"ACEPTADO":  StatusApproved,
	"ACCEPTED":  StatusApproved,
	"VALIDATED": StatusApproved,
	"VALIDADO":  StatusApproved,

	"PENDING":     StatusPending,
	"PENDIENTE":   StatusPending,
	"EN_REVISION": StatusPending,
	"REVISION":    StatusPending,
}

// Classifier turns raw status strings into canonical states.
type Classifier struct {
	synonyms map[string]Status
}

// NewClassifier builds a classifier from the built-in synonyms plus extra
// spellings. Extras never override a built-in spelling.
func NewClassifier(extra map[Status][]string) *Classifier {
	synonyms := make(map[string]Status, len(statusSynonyms))
	for k, v := range statusSynonyms {
		synonyms[k] = v
	}
	for status, spellings := range extra {
		if !status.Known() {
			continue
		}
		for _, s := range spellings {
			key := normalizeStatusKey(s)
			if key == "" {
				continue
			}
			if _, exists := synonyms[key]; exists {
				continue
			}
			synonyms[key] = status
		}
	}
	return &Classifier{synonyms: synonyms}
}

var defaultClassifier = NewClassifier(nil)

// Classify maps a raw status to its canonical state using the built-in table.
// Unrecognized or empty input yields StatusUnknown.
func Classify(raw string) Status {
	return defaultClassifier.Classify(raw)
}

// Classify maps a raw status to its canonical state.
func (c *Classifier) Classify(raw string) Status {
	if c == nil {
		return Classify(raw)
	}
	if status, ok := c.synonyms[normalizeStatusKey(raw)]; ok {
		return status
	}
	return StatusUnknown
}

// Known reports whether s is one of the three recognized moderation states.
func (s Status) Known() bool {
	switch s {
	case StatusRejected, StatusApproved, StatusPending:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// normalizeStatusKey folds case and accents and turns each run of inner
// spaces, hyphens and underscores into one "_", so "En revisión",
// "en-revision" and "EN_REVISION" share one key. Only whitespace is trimmed:
// "-DENIED" keeps its leading separator and matches nothing.
func normalizeStatusKey(raw string) string {
	s := strings.ToUpper(removeDiacritics(strings.TrimSpace(raw)))

	var b strings.Builder
	b.Grow(len(s))
	inSep := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == '-' || r == '_' {
			if !inSep {
				b.WriteByte('_')
			}
			inSep = true
			continue
		}
		inSep = false
		b.WriteRune(r)
	}
	return b.String()
}

func removeDiacritics(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
