// Package images compresses uploaded listing photos to a byte budget and
// stores the result inline or in an object bucket.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxSize = 2 * 1024 * 1024
	DefaultQuality = 80
	minQuality     = 20
	qualityStep    = 10
	resizeQuality  = 70
)

var (
	ErrEmptyImage = errors.New("invalid image input: empty buffer")
	ErrNotImage   = errors.New("unable to decode image")
)

type Options struct {
	MaxSize int64
	Quality int
	Format  string
}

func (o Options) withDefaults() Options {
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	if o.Quality < minQuality {
		o.Quality = minQuality
	}
	o.Format = normalizeFormat(o.Format)
	return o
}

// normalizeFormat maps a requested output format onto one we can encode.
// There is no pure-Go webp encoder, so webp requests are served as jpeg.
func normalizeFormat(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return "png"
	default:
		return "jpeg"
	}
}

type Result struct {
	Data             []byte
	Size             int
	OriginalSize     int
	CompressionRatio string
	Format           string
	Width            int
	Height           int
}

func (r *Result) ContentType() string {
	return "image/" + r.Format
}

func (r *Result) DataURL() string {
	return "data:" + r.ContentType() + ";base64," + encodeBase64(r.Data)
}

// CompressImage re-encodes buf at decreasing quality until it fits
// opts.MaxSize. If the lowest quality is still too large the image is scaled
// by sqrt(MaxSize/size) and encoded once more. An input that already fits is
// returned as is, in its own format, when re-encoding would not shrink it, so
// the reported ratio never goes negative for it.
func CompressImage(buf []byte, opts Options) (*Result, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyImage
	}
	opts = opts.withDefaults()

	img, srcFormat, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	format := opts.Format
	var out []byte
	for q := opts.Quality; q >= minQuality; q -= qualityStep {
		out, err = encode(img, opts.Format, q)
		if err != nil {
			return nil, err
		}
		if int64(len(out)) <= opts.MaxSize || opts.Format == "png" {
			break
		}
	}

	switch {
	case int64(len(out)) > opts.MaxSize:
		scale := math.Sqrt(float64(opts.MaxSize) / float64(len(out)))
		width = max(1, int(math.Floor(float64(width)*scale)))
		height = max(1, int(math.Floor(float64(height)*scale)))

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		if out, err = encode(dst, opts.Format, resizeQuality); err != nil {
			return nil, err
		}
	case int64(len(buf)) <= opts.MaxSize && len(out) >= len(buf):
		out = buf
		format = srcFormat
	}

	ratio := (1 - float64(len(out))/float64(len(buf))) * 100
	return &Result{
		Data:             out,
		Size:             len(out),
		OriginalSize:     len(buf),
		CompressionRatio: fmt.Sprintf("%.2f%%", ratio),
		Format:           format,
		Width:            width,
		Height:           height,
	}, nil
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
