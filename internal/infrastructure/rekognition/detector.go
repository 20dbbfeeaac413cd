package rekognition

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/couple-registry/internal/config"
)

// FaceDetector is the external oracle the adjudicator consults, one call per
// image. Confidence is normalised to [0, 1].
type FaceDetector interface {
	DetectFace(ctx context.Context, image []byte) (found bool, confidence float64, err error)
}

type detector struct {
	client *rekognition.Client
}

func NewDetector(cfg *config.Config) (FaceDetector, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.RekognitionRegion),
	)
	if err != nil {
		return nil, err
	}
	return &detector{client: rekognition.NewFromConfig(awsCfg)}, nil
}

func (d *detector) DetectFace(ctx context.Context, image []byte) (bool, float64, error) {
	out, err := d.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return false, 0, err
	}
	if len(out.FaceDetails) == 0 {
		return false, 0, nil
	}
	// Use the most confident detection; Rekognition reports 0-100.
	best := 0.0
	for _, f := range out.FaceDetails {
		if f.Confidence != nil && float64(*f.Confidence) > best {
			best = float64(*f.Confidence)
		}
	}
	return true, best / 100.0, nil
}
