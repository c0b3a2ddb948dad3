package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rktypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/johnrirwin/bizregistry/internal/models"
)

// ErrEmptyPhoto is returned when there are no bytes to screen.
var ErrEmptyPhoto = errors.New("moderation: empty photo")

type rekognitionClient interface {
	DetectModerationLabels(ctx context.Context, params *rekognition.DetectModerationLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error)
}

// Rekognition is a LabelSource backed by AWS Rekognition. Photos are sent
// inline, so they must be under the service's 5 MB byte limit.
type Rekognition struct {
	client rekognitionClient
	floor  float32
}

// NewRekognition loads AWS credentials from the environment. Flags scored
// below floor are dropped by the service.
func NewRekognition(ctx context.Context, region string, floor float32) (*Rekognition, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region = strings.TrimSpace(region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("moderation - NewRekognition - LoadDefaultConfig: %w", err)
	}
	return &Rekognition{client: rekognition.NewFromConfig(awsCfg), floor: floor}, nil
}

func (r *Rekognition) Flags(ctx context.Context, photo []byte) ([]models.ScreeningFlag, error) {
	if len(photo) == 0 {
		return nil, ErrEmptyPhoto
	}

	in := &rekognition.DetectModerationLabelsInput{Image: &rktypes.Image{Bytes: photo}}
	if r.floor > 0 {
		in.MinConfidence = aws.Float32(r.floor)
	}

	out, err := r.client.DetectModerationLabels(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("moderation - Flags - DetectModerationLabels: %w", err)
	}
	return toFlags(out.ModerationLabels), nil
}

func toFlags(labels []rktypes.ModerationLabel) []models.ScreeningFlag {
	flags := make([]models.ScreeningFlag, 0, len(labels))
	for _, l := range labels {
		name := aws.ToString(l.Name)
		if name == "" {
			continue
		}
		flags = append(flags, models.ScreeningFlag{
			Category: name,
			Parent:   aws.ToString(l.ParentName),
			Score:    float64(aws.ToFloat32(l.Confidence)),
		})
	}
	return flags
}
