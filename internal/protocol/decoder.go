package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Decoder reads requests and the file content that follows them.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next reads the next request, skipping blank lines. It returns io.EOF when
// the input ends cleanly between requests.
func (d *Decoder) Next() (*Request, error) {
	for {
		line, err := d.r.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err != nil {
				return nil, io.EOF
			}
			continue
		}

		var req Request
		if jerr := json.Unmarshal(line, &req); jerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, jerr)
		}
		if req.Size < 0 {
			return nil, fmt.Errorf("%w: negative size %d", ErrMalformedRequest, req.Size)
		}
		return &req, nil
	}
}

// Content reads exactly size bytes of file content. The buffer grows with
// the bytes actually read, so an inflated size on a short stream fails with
// ErrTruncated instead of allocating size bytes up front.
func (d *Decoder) Content(size int) ([]byte, error) {
	var buf bytes.Buffer
	if n, err := io.CopyN(&buf, d.r, int64(size)); err != nil {
		return nil, truncated(size, n, err)
	}
	return buf.Bytes(), nil
}

// Discard skips size bytes of content without keeping them.
func (d *Decoder) Discard(size int) error {
	if n, err := io.CopyN(io.Discard, d.r, int64(size)); err != nil {
		return truncated(size, n, err)
	}
	return nil
}

func truncated(want int, got int64, err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrTruncated, want, got)
	}
	return fmt.Errorf("%w: want %d bytes: %v", ErrTruncated, want, err)
}
