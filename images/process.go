package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

var allowedMimes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

type Processed struct {
	ID               string `json:"id"`
	Data             string `json:"data"`
	Size             int    `json:"size"`
	OriginalSize     int    `json:"originalSize"`
	CompressionRatio string `json:"compressionRatio"`
	OriginalName     string `json:"originalName"`
	MimeType         string `json:"mimeType"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
}

// IsValidImage reports whether the upload carries one of the accepted MIME types.
func IsValidImage(u *Upload) bool {
	return u != nil && allowedMimes[strings.ToLower(u.MimeType)]
}

type Processor struct {
	opts Options
	sink Sink
}

func NewProcessor(opts Options, sink Sink) *Processor {
	if sink == nil {
		sink = DataURLSink{}
	}
	return &Processor{opts: opts.withDefaults(), sink: sink}
}

// ProcessImages compresses and stores every acceptable upload. Missing, empty,
// non-image or undecodable files are logged and left out of the result.
func (p *Processor) ProcessImages(ctx context.Context, files []*Upload) []Processed {
	processed := make([]Processed, 0, len(files))
	for _, f := range files {
		if f == nil || len(f.Data) == 0 || f.MimeType == "" {
			log.Printf("processImages skipped invalid file: %s", uploadName(f))
			continue
		}
		if !IsValidImage(f) {
			log.Printf("processImages rejected file not valid image: %s %s", f.MimeType, f.Filename)
			continue
		}

		res, err := CompressImage(f.Data, p.opts)
		if err != nil {
			log.Printf("Image compression error for %s: %v", f.Filename, err)
			continue
		}

		id := uuid.NewString()
		location, err := p.sink.Store(ctx, id, res)
		if err != nil {
			log.Printf("Error storing image %s: %v", f.Filename, err)
			continue
		}

		processed = append(processed, Processed{
			ID:               id,
			Data:             location,
			Size:             res.Size,
			OriginalSize:     res.OriginalSize,
			CompressionRatio: res.CompressionRatio,
			OriginalName:     f.Filename,
			MimeType:         f.MimeType,
			Width:            res.Width,
			Height:           res.Height,
		})
	}
	return processed
}

// ReadUploads loads multipart file parts into memory. The part's declared
// Content-Type is used, falling back to sniffing the first bytes.
func ReadUploads(headers []*multipart.FileHeader) ([]*Upload, error) {
	uploads := make([]*Upload, 0, len(headers))
	for _, fh := range headers {
		file, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}

		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(data)
		}
		uploads = append(uploads, &Upload{Filename: fh.Filename, MimeType: mimeType, Data: data})
	}
	return uploads, nil
}

func uploadName(u *Upload) string {
	if u == nil {
		return "<nil>"
	}
	return u.Filename
}

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
