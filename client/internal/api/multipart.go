package api

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"path/filepath"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
	"github.com/sourcefinder/sourcefinder/client/internal/types"
)

type formField struct {
	name  string
	value string
}

// multipartPayload is a streamed multipart/form-data body. The form fields
// and part headers are rendered up front so the total length is known
// whenever the file size is.
type multipartPayload struct {
	body        io.Reader
	contentType string
	length      int64 // -1 when unknown
}

// payloadError normalizes a failure to assemble a multipart body.
func payloadError(op string, err error) error {
	return apierrors.NewValidationError(op, fmt.Sprintf("build request body: %v", err))
}

func newMultipartPayload(fields []formField, fileField string, file *types.FileSource) (*multipartPayload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if file != nil {
		if _, err := mw.CreateFormFile(fileField, partFilename(file.Name)); err != nil {
			return nil, err
		}
	}
	headLen := buf.Len()
	if err := mw.Close(); err != nil {
		return nil, err
	}
	raw := buf.Bytes()
	head, tail := raw[:headLen], raw[headLen:]

	p := &multipartPayload{contentType: mw.FormDataContentType()}
	if file == nil {
		p.body = bytes.NewReader(raw)
		p.length = int64(len(raw))
		return p, nil
	}
	p.body = io.MultiReader(bytes.NewReader(head), file.Reader, bytes.NewReader(tail))
	p.length = -1
	if file.Size >= 0 {
		p.length = int64(len(head)) + file.Size + int64(len(tail))
	}
	return p, nil
}

func partFilename(name string) string {
	if name == "" {
		return "upload"
	}
	return filepath.Base(name)
}

// progressReader reports the share of the body consumed by the transport.
// Values are strictly increasing; nothing is reported when total is unknown.
type progressReader struct {
	r      io.Reader
	total  int64
	loaded int64
	last   int
	fn     types.ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn types.ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, last: -1, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		uploadBytesTotal.Add(float64(n))
		p.report()
	}
	return n, err
}

func (p *progressReader) report() {
	if p.fn == nil || p.total <= 0 {
		return
	}
	pct := progressPercent(p.loaded, p.total)
	if pct <= p.last {
		return
	}
	p.last = pct
	p.fn(pct)
}

// progressPercent is round(loaded/total*100) clamped to [0,100].
func progressPercent(loaded, total int64) int {
	pct := math.Round(float64(loaded) / float64(total) * 100)
	return int(math.Max(0, math.Min(100, pct)))
}
