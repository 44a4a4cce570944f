package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"strconv"
	"strings"
	"testing"
)

func gradientJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	return img
}

func noisePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func parseRatio(t *testing.T, s string) float64 {
	t.Helper()
	if !strings.HasSuffix(s, "%") {
		t.Fatalf("ratio %q has no percent sign", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		t.Fatalf("ratio %q: %v", s, err)
	}
	return v
}

func TestCompressImage_WithinBudgetKeepsDimensions(t *testing.T) {
	src := gradientJPEG(t, 64, 48)

	res, err := CompressImage(src, Options{MaxSize: 1 << 20, Format: "jpeg"})
	if err != nil {
		t.Fatalf("CompressImage: %v", err)
	}
	if res.Width != 64 || res.Height != 48 {
		t.Errorf("dimensions = %dx%d, want 64x48", res.Width, res.Height)
	}
	if r := parseRatio(t, res.CompressionRatio); r < 0 {
		t.Errorf("ratio = %v, want >= 0", r)
	}
	if res.Size > res.OriginalSize {
		t.Errorf("size %d grew past original %d", res.Size, res.OriginalSize)
	}
	if res.Format != "jpeg" {
		t.Errorf("format = %q", res.Format)
	}
}

func TestCompressImage_ResizesWhenQualityIsNotEnough(t *testing.T) {
	src := noisePNG(t, 256, 256)

	res, err := CompressImage(src, Options{MaxSize: 1000, Format: "jpeg"})
	if err != nil {
		t.Fatalf("CompressImage: %v", err)
	}
	if res.Width >= 256 || res.Height >= 256 {
		t.Errorf("dimensions = %dx%d, want smaller than 256x256", res.Width, res.Height)
	}
	if _, _, err := image.Decode(bytes.NewReader(res.Data)); err != nil {
		t.Errorf("output is not decodable: %v", err)
	}
}

func TestCompressImage_WebpRequestFallsBackToJPEG(t *testing.T) {
	res, err := CompressImage(gradientJPEG(t, 128, 128), Options{Format: "webp"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Format != "jpeg" || res.ContentType() != "image/jpeg" {
		t.Errorf("format = %q, content type = %q", res.Format, res.ContentType())
	}
}

func TestCompressImage_PNGOutput(t *testing.T) {
	var src bytes.Buffer
	if err := jpeg.Encode(&src, solidImage(64, 64), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}
	res, err := CompressImage(src.Bytes(), Options{Format: "png"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Format != "png" {
		t.Errorf("format = %q, want png", res.Format)
	}
	if _, format, err := image.Decode(bytes.NewReader(res.Data)); err != nil || format != "png" {
		t.Errorf("decoded format = %q, err = %v", format, err)
	}
}

func TestCompressImage_SmallPNGKeptWhenJPEGWouldGrow(t *testing.T) {
	var src bytes.Buffer
	if err := png.Encode(&src, solidImage(4, 4)); err != nil {
		t.Fatal(err)
	}

	res, err := CompressImage(src.Bytes(), Options{})
	if err != nil {
		t.Fatalf("CompressImage: %v", err)
	}
	if !bytes.Equal(res.Data, src.Bytes()) {
		t.Errorf("expected original bytes back, got %d bytes from %d", res.Size, res.OriginalSize)
	}
	if res.CompressionRatio != "0.00%" {
		t.Errorf("ratio = %q, want 0.00%%", res.CompressionRatio)
	}
	if res.Format != "png" || !strings.HasPrefix(res.DataURL(), "data:image/png;base64,") {
		t.Errorf("format = %q, data url = %.30s", res.Format, res.DataURL())
	}
	if res.Width != 4 || res.Height != 4 {
		t.Errorf("dimensions = %dx%d", res.Width, res.Height)
	}
}

func TestCompressImage_RejectsBadInput(t *testing.T) {
	if _, err := CompressImage(nil, Options{}); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty buffer: err = %v, want ErrEmptyImage", err)
	}
	if _, err := CompressImage([]byte("definitely not an image"), Options{}); !errors.Is(err, ErrNotImage) {
		t.Errorf("text buffer: err = %v, want ErrNotImage", err)
	}
}

func TestProcessImages_SkipsInvalidFiles(t *testing.T) {
	p := NewProcessor(Options{}, nil)
	files := []*Upload{
		nil,
		{Filename: "empty.jpg", MimeType: "image/jpeg"},
		{Filename: "notes.txt", MimeType: "text/plain", Data: []byte("hello")},
		{Filename: "broken.png", MimeType: "image/png", Data: []byte("not png")},
		{Filename: "house.jpg", MimeType: "image/jpeg", Data: gradientJPEG(t, 32, 32)},
	}

	out := p.ProcessImages(context.Background(), files)
	if len(out) != 1 {
		t.Fatalf("processed %d images, want 1", len(out))
	}
	got := out[0]
	if got.OriginalName != "house.jpg" || got.ID == "" {
		t.Errorf("unexpected result %+v", got)
	}
	if !strings.HasPrefix(got.Data, "data:image/jpeg;base64,") {
		t.Errorf("data = %.40q, want data URL", got.Data)
	}
}

type failingSink struct{}

func (failingSink) Store(context.Context, string, *Result) (string, error) {
	return "", errors.New("bucket unavailable")
}

func TestProcessImages_SkipsStoreFailures(t *testing.T) {
	p := NewProcessor(Options{}, failingSink{})
	out := p.ProcessImages(context.Background(), []*Upload{
		{Filename: "a.jpg", MimeType: "image/jpeg", Data: gradientJPEG(t, 8, 8)},
	})
	if len(out) != 0 {
		t.Errorf("got %d images, want none", len(out))
	}
}

func TestIsValidImage(t *testing.T) {
	cases := map[string]bool{
		"image/jpeg": true,
		"image/JPG":  true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  false,
		"text/plain": false,
		"":           false,
	}
	for mime, want := range cases {
		if got := IsValidImage(&Upload{MimeType: mime}); got != want {
			t.Errorf("IsValidImage(%q) = %v, want %v", mime, got, want)
		}
	}
	if IsValidImage(nil) {
		t.Error("nil upload reported valid")
	}
}
