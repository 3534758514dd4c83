// Package imageopt shrinks uploaded photos before they go to object storage.
package imageopt

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

const (
	// DefaultMaxDimension bounds the longest side of an optimised image.
	DefaultMaxDimension = 1200
	DefaultQuality      = 82

	// ContentType is the MIME type of every optimised image.
	ContentType = "image/jpeg"
	// Extension is the file extension of every optimised image.
	Extension = ".jpg"
)

// Result is an optimised JPEG.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

// Optimizer decodes, downsizes and re-encodes images as JPEG.
type Optimizer struct {
	MaxDimension int
	Quality      int
}

// New returns an Optimizer with the default bounds.
func New() *Optimizer {
	return &Optimizer{MaxDimension: DefaultMaxDimension, Quality: DefaultQuality}
}

// Optimize reads an image in any format imaging can decode, applies EXIF
// orientation, fits it within MaxDimension on both sides and returns it as
// JPEG. Transparent areas are flattened onto white.
func (o *Optimizer) Optimize(r io.Reader) (*Result, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > o.MaxDimension || b.Dy() > o.MaxDimension {
		img = imaging.Fit(img, o.MaxDimension, o.MaxDimension, imaging.Lanczos)
		b = img.Bounds()
	}

	flat := imaging.New(b.Dx(), b.Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(o.Quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &Result{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}
