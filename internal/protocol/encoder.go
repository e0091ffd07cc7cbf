package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Encoder writes replies, one JSON line each. Every reply is flushed before
// Write returns so the caller can consume the stream incrementally.
type Encoder struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &Encoder{w: bw, enc: enc}
}

// Write encodes r followed by a newline and flushes it. Any failure is
// wrapped in ErrOutput.
func (e *Encoder) Write(r Reply) error {
	if err := e.enc.Encode(r); err != nil {
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	return nil
}
