// Package protocol implements the line-delimited JSON protocol spoken on
// stdin/stdout. Each message is one JSON object followed by "\n". Requests
// carrying file content are followed by exactly Size raw bytes.
package protocol

import (
	"encoding/json"
	"errors"

	"github.com/phobologic/scopetags/internal/model"
)

// Command names accepted in requests.
const (
	CommandGenerateTags = "generate-tags"
)

var (
	// ErrOutput reports a failure of the output channel. It is always fatal.
	ErrOutput = errors.New("writing reply")
	// ErrMalformedRequest reports a request line that cannot be decoded.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrTruncated reports input that ended before the announced content size.
	ErrTruncated = errors.New("truncated file content")
)

// Request is the wire format for caller-to-scopetags messages.
type Request struct {
	Command  string `json:"command"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

// Reply is a message written back to the caller.
type Reply interface {
	replyType() string
}

// ProgramReply identifies the program. It is the first line of a session.
type ProgramReply struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// CompletedReply marks the end of the output for one request.
type CompletedReply struct {
	Command string `json:"command"`
}

// ErrorReply reports a problem. When Fatal is set the session ends after it.
type ErrorReply struct {
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// TagReply carries one tag.
type TagReply model.Tag

func (ProgramReply) replyType() string   { return "program" }
func (CompletedReply) replyType() string { return "completed" }
func (ErrorReply) replyType() string     { return "error" }
func (TagReply) replyType() string       { return "tag" }

func (r ProgramReply) MarshalJSON() ([]byte, error) {
	type body ProgramReply
	return json.Marshal(struct {
		Type string `json:"_type"`
		body
	}{r.replyType(), body(r)})
}

func (r CompletedReply) MarshalJSON() ([]byte, error) {
	type body CompletedReply
	return json.Marshal(struct {
		Type string `json:"_type"`
		body
	}{r.replyType(), body(r)})
}

func (r ErrorReply) MarshalJSON() ([]byte, error) {
	type body ErrorReply
	return json.Marshal(struct {
		Type string `json:"_type"`
		body
	}{r.replyType(), body(r)})
}

func (r TagReply) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"_type"`
		model.Tag
	}{r.replyType(), model.Tag(r)})
}
