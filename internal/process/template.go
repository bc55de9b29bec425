package process

import (
	"fmt"

	"github.com/pc494/pycrystem/internal/frame"
	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
)

// TemplateMatch correlates a binary template against every frame, producing
// a lazy array of frame-shaped normalised cross-correlation maps shifted so
// each frame's minimum is 0. The template must be rank 2.
func TemplateMatch(a *lazy.Array, template *nd.Array) (*lazy.Array, error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	if template.Rank() != 2 {
		return nil, fmt.Errorf("%w: template rank %d, want 2", ErrUnsupportedRank, template.Rank())
	}
	return mapFrames("template-match", a, func(f *nd.Array) *nd.Array {
		return frame.MatchTemplate(f, template)
	}), nil
}

// TemplateMatchDisk correlates a flat disk of the given radius against
// every frame. A zero radius selects the default.
func TemplateMatchDisk(a *lazy.Array, diskRadius int) (*lazy.Array, error) {
	if diskRadius == 0 {
		diskRadius = DefaultDiskRadius
	}
	return TemplateMatch(a, frame.Disk(diskRadius))
}
