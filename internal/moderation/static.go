package moderation

import (
	"context"

	"github.com/johnrirwin/bizregistry/internal/models"
)

// StaticSource is a LabelSource with canned output. It backs tests and
// offline runs.
type StaticSource struct {
	Result []models.ScreeningFlag
	Err    error
}

func (s *StaticSource) Flags(context.Context, []byte) ([]models.ScreeningFlag, error) {
	return s.Result, s.Err
}
