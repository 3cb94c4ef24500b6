// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalizes AI-generated images before they are stored
// as database blobs: oversized outputs are scaled down and exotic
// formats are re-encoded to JPEG or PNG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/pressflow/internal/model"
)

// Defaults for generated-image normalization.
const (
	DefaultMaxWidth    = 1792
	DefaultJPEGQuality = 90
)

// Normalized is the result of processing one generated image.
type Normalized struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// Processor normalizes generated images using pure Go codecs.
type Processor struct {
	maxWidth int
	quality  int
}

// NewProcessor creates a processor with the default size and quality bounds.
func NewProcessor() *Processor {
	return &Processor{maxWidth: DefaultMaxWidth, quality: DefaultJPEGQuality}
}

// WithMaxWidth overrides the downscale bound.
func (p *Processor) WithMaxWidth(w int) *Processor {
	if w > 0 {
		p.maxWidth = w
	}
	return p
}

// Normalize decodes generated image bytes, scales them down to the
// configured width when needed and re-encodes. PNG stays PNG; every
// other decodable format becomes JPEG, since WebP has no pure Go
// encoder. Providers occasionally mislabel their output, so the MIME
// type is re-detected from the bytes rather than trusted.
func (p *Processor) Normalize(data []byte) (*Normalized, error) {
	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format %q", p.DetectMimeType(data))
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	resized := false
	if img.Bounds().Dx() > p.maxWidth {
		img = imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)
		resized = true
	}

	// Untouched JPEG/PNG bytes are kept verbatim to avoid a lossy
	// re-encode round trip.
	if !resized && (format == "jpeg" || format == "png") {
		bounds := img.Bounds()
		return &Normalized{
			Data:     data,
			MimeType: formatToMimeType(format),
			Width:    bounds.Dx(),
			Height:   bounds.Dy(),
		}, nil
	}

	outFormat := "jpeg"
	if format == "png" {
		outFormat = "png"
	}
	encoded, err := p.encode(img, outFormat)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	bounds := img.Bounds()
	return &Normalized{
		Data:     encoded,
		MimeType: formatToMimeType(outFormat),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}

// Dimensions reads image dimensions without decoding the full pixel data.
func (p *Processor) Dimensions(data []byte) (width, height int, err error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("reading image config: %w", err)
	}
	return config.Width, config.Height, nil
}

// DetectMimeType detects the MIME type of image data from its bytes.
func (p *Processor) DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// IsSupportedType checks if a MIME type can be stored and served.
func (p *Processor) IsSupportedType(mimeType string) bool {
	return model.IsSupportedImageMimeType(mimeType)
}

func (p *Processor) encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// formatToMimeType converts format string to MIME type.
func formatToMimeType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return model.MimeTypeJPEG
	case "png":
		return model.MimeTypePNG
	case "webp":
		return model.MimeTypeWebP
	default:
		return "application/octet-stream"
	}
}
