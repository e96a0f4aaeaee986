package ops

import (
	"fmt"

	"github.com/hpungsan/capture/internal/capture"
	"github.com/hpungsan/capture/internal/errors"
)

// CaptureInput is a capture request as received by the CLI, MCP or web surface.
type CaptureInput struct {
	Text        string
	Tags        []string // raw; normalized by BuildCapture
	Source      string   // direct, share or text-selection; empty means direct
	Attachments []capture.Attachment
}

// BuildCapture validates a request and returns the capture to save.
func BuildCapture(input CaptureInput) (capture.Capture, error) {
	source, err := capture.ParseSource(input.Source)
	if err != nil {
		return capture.Capture{}, errors.NewInvalidRequest(err.Error())
	}

	for i, a := range input.Attachments {
		if a.Locator == "" {
			return capture.Capture{}, errors.NewInvalidRequest(fmt.Sprintf("attachment %d has no locator", i+1))
		}
	}

	return capture.Capture{
		Text:        input.Text,
		Tags:        capture.NormalizeTags(input.Tags),
		Attachments: input.Attachments,
		Source:      source,
	}, nil
}
