// Package moderation screens business photos for content the registry will
// not publish.
package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnrirwin/bizregistry/internal/logging"
	"github.com/johnrirwin/bizregistry/internal/metrics"
	"github.com/johnrirwin/bizregistry/internal/models"
)

// DefaultBlockAt is the score at which a flag blocks a photo.
const DefaultBlockAt = 70.0

// LabelSource reports the content categories found in a photo.
type LabelSource interface {
	Flags(ctx context.Context, photo []byte) ([]models.ScreeningFlag, error)
}

// Policy decides which flags block a photo.
type Policy struct {
	BlockAt float64
	// Allow lists top-level categories that never block, e.g. "Alcohol"
	// for bars and liquor stores.
	Allow []string
}

// Screener turns detector flags into a verdict.
type Screener struct {
	source  LabelSource
	blockAt float64
	allowed map[string]struct{}
	logger  *logging.Logger
}

func NewScreener(source LabelSource, policy Policy, logger *logging.Logger) *Screener {
	if policy.BlockAt <= 0 {
		policy.BlockAt = DefaultBlockAt
	}
	allowed := make(map[string]struct{}, len(policy.Allow))
	for _, c := range policy.Allow {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			allowed[c] = struct{}{}
		}
	}
	return &Screener{
		source:  source,
		blockAt: policy.BlockAt,
		allowed: allowed,
		logger:  logger,
	}
}

// Screen checks one photo. A source error is returned as is so the caller
// can decide whether to fail open.
func (s *Screener) Screen(ctx context.Context, photo []byte) (*models.ScreeningResult, error) {
	flags, err := s.source.Flags(ctx, photo)
	if err != nil {
		return nil, fmt.Errorf("moderation - Screen - source.Flags: %w", err)
	}

	result := &models.ScreeningResult{Verdict: models.VerdictClear, Flags: flags}
	seen := map[string]bool{}
	for _, f := range flags {
		if f.Score > result.TopScore {
			result.TopScore = f.Score
		}
		if f.Score < s.blockAt || s.isAllowed(f) || seen[f.Category] {
			continue
		}
		seen[f.Category] = true
		result.BlockedBy = append(result.BlockedBy, f.Category)
	}

	if len(result.BlockedBy) > 0 {
		result.Verdict = models.VerdictBlocked
		result.Note = "content not allowed: " + strings.Join(result.BlockedBy, ", ")
		s.logger.Info("Photo blocked by screening", logging.WithFields(map[string]interface{}{
			"categories": result.BlockedBy,
			"top_score":  result.TopScore,
		}))
	}
	metrics.ScreeningVerdicts.WithLabelValues(string(result.Verdict)).Inc()
	return result, nil
}

func (s *Screener) isAllowed(f models.ScreeningFlag) bool {
	_, ok := s.allowed[strings.ToLower(f.TopLevel())]
	return ok
}
