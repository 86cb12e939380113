// Package vision recognizes text with the Google Cloud Vision API
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	visionapi "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// ErrNoResponse is returned when the API answers without an annotation
var ErrNoResponse = errors.New("vision returned no response")

type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// Engine sends each image to DOCUMENT_TEXT_DETECTION
type Engine struct {
	client annotator
}

// New dials the Vision API. An empty credentialsFile uses application
// default credentials.
func New(ctx context.Context, credentialsFile string) (*Engine, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := visionapi.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init OCR client: %w", err)
	}
	return &Engine{client: client}, nil
}

func (e *Engine) Name() string { return "vision" }

// Recognize returns the full text annotation of img
func (e *Engine) Recognize(ctx context.Context, img []byte) (string, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: img},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	}

	resp, err := e.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("could not extract text from image: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", ErrNoResponse
	}

	res := resp.GetResponses()[0]
	if st := res.GetError(); st != nil && st.GetCode() != 0 {
		return "", fmt.Errorf("vision error %d: %s", st.GetCode(), st.GetMessage())
	}
	return strings.TrimSpace(res.GetFullTextAnnotation().GetText()), nil
}

// Close releases the underlying gRPC connection
func (e *Engine) Close() error {
	return e.client.Close()
}
