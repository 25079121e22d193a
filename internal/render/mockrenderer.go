package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
)

// MockRenderer returns fixed bytes for every fragment, or a configured
// error for designated fragments. Export tests use it to exercise the
// per-capture failure isolation without a browser.
type MockRenderer struct {
	Image []byte
	Fail  map[string]error
}

func NewMockRenderer() *MockRenderer {
	return &MockRenderer{Fail: map[string]error{}}
}

func (m *MockRenderer) Render(ctx context.Context, fragment string) ([]byte, error) {
	if err, ok := m.Fail[fragment]; ok {
		return nil, err
	}
	if m.Image != nil {
		return m.Image, nil
	}
	return pixel()
}

// pixel encodes a single white pixel, a minimal but valid png.
func pixel() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	buffer := &bytes.Buffer{}
	if err := png.Encode(buffer, img); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
