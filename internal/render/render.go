// Package render turns captured DOM fragments back into raster images.
// The Renderer interface is deliberately narrow so that export logic
// can be tested without a rendering environment.
package render

import "context"

// A Renderer renders a serialized html fragment to a png image.
// Failures are reported as plain errors; catching them per capture is
// the export pipeline's job.
type Renderer interface {
	Render(ctx context.Context, fragment string) ([]byte, error)
}
