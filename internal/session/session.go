// Package session runs the tag-generation request loop: it reads requests
// and file content, extracts the scope tree for each file and streams the
// resulting tags back as protocol replies.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/phobologic/scopetags/internal/lang"
	"github.com/phobologic/scopetags/internal/model"
	"github.com/phobologic/scopetags/internal/parse"
	"github.com/phobologic/scopetags/internal/protocol"
	"github.com/phobologic/scopetags/internal/tags"
)

var (
	// ErrMissingExtension reports a filename without an extension.
	ErrMissingExtension = errors.New("file has no extension")
	// ErrUnknownParser reports an extension with no registered language.
	ErrUnknownParser = errors.New("no parser for extension")
	// ErrFileTooLarge reports content above the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// Resolver maps a dotted extension to a language.
type Resolver func(ext string) (*lang.Language, bool)

// Extractor builds the scope tree of one file.
type Extractor func(ctx context.Context, l *lang.Language, source []byte) (*model.Scope, error)

// Options configures a Session. Zero values select the built-in registry
// and tree-sitter extractor, no size limit and a discarding logger.
type Options struct {
	Name        string
	Version     string
	MaxFileSize int64
	Logger      *slog.Logger
	Resolve     Resolver
	Extract     Extractor
}

// Session serves requests one at a time. It holds no per-request state.
type Session struct {
	name        string
	version     string
	maxFileSize int64
	log         *slog.Logger
	resolve     Resolver
	extract     Extractor
}

// New returns a Session configured by opts.
func New(opts Options) *Session {
	s := &Session{
		name:        opts.Name,
		version:     opts.Version,
		maxFileSize: opts.MaxFileSize,
		log:         opts.Logger,
		resolve:     opts.Resolve,
		extract:     opts.Extract,
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if s.resolve == nil {
		s.resolve = lang.ForExtension
	}
	if s.extract == nil {
		s.extract = parse.Globals
	}
	return s
}

// Serve writes the program banner and then answers requests read from r
// until r is exhausted or ctx is cancelled. A nil return means the input
// ended cleanly. Undecodable input gets a fatal error reply and ends the
// session with an error; any write failure is returned wrapped in
// protocol.ErrOutput.
func (s *Session) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	enc := protocol.NewEncoder(w)
	dec := protocol.NewDecoder(r)

	if err := enc.Write(protocol.ProgramReply{Name: s.name, Version: s.version}); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			s.log.Debug("session cancelled")
			return nil
		}

		req, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return s.fatal(enc, fmt.Errorf("reading request: %w", err))
		}

		switch req.Command {
		case protocol.CommandGenerateTags:
			if s.exceedsLimit(req.Size) {
				if err := dec.Discard(req.Size); err != nil {
					return s.fatal(enc, fmt.Errorf("reading %s: %w", req.Filename, err))
				}
				if err := s.reject(enc, req.Filename, req.Size); err != nil {
					return err
				}
				break
			}
			content, err := dec.Content(req.Size)
			if err != nil {
				return s.fatal(enc, fmt.Errorf("reading %s: %w", req.Filename, err))
			}
			if err := s.GenerateTags(ctx, enc, req.Filename, content); err != nil {
				return err
			}
		default:
			// Drop any announced payload so the next request line stays aligned.
			if err := dec.Discard(req.Size); err != nil {
				return s.fatal(enc, fmt.Errorf("reading payload of %q: %w", req.Command, err))
			}
			s.log.Warn("unknown command", "command", req.Command)
			if err := enc.Write(protocol.ErrorReply{Message: fmt.Sprintf("unknown command %q", req.Command)}); err != nil {
				return err
			}
			continue
		}

		if err := enc.Write(protocol.CompletedReply{Command: req.Command}); err != nil {
			return err
		}
	}
}

func (s *Session) exceedsLimit(size int) bool {
	return s.maxFileSize > 0 && int64(size) > s.maxFileSize
}

func (s *Session) tooLarge(filename string, size int) error {
	return fmt.Errorf("%s: %w (%d > %d bytes)", filename, ErrFileTooLarge, size, s.maxFileSize)
}

func (s *Session) fatal(enc *protocol.Encoder, err error) error {
	s.log.Error("fatal protocol error", "err", err)
	if werr := enc.Write(protocol.ErrorReply{Message: err.Error(), Fatal: true}); werr != nil {
		return werr
	}
	return err
}

// GenerateTags streams tag replies for one file. Unsupported files produce
// no output. Any other failure to produce tags is reported as a non-fatal
// error reply. Only output failures are returned.
func (s *Session) GenerateTags(ctx context.Context, enc *protocol.Encoder, filename string, content []byte) error {
	err := s.Tags(ctx, filename, content, func(t model.Tag) error {
		return enc.Write(protocol.TagReply(t))
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, protocol.ErrOutput):
		return err
	case errors.Is(err, ErrMissingExtension), errors.Is(err, ErrUnknownParser):
		s.log.Debug("no tags generated", "file", filename, "reason", err)
		return nil
	default:
		s.log.Warn("failed to generate tags", "file", filename, "err", err)
		return enc.Write(protocol.ErrorReply{Message: err.Error()})
	}
}

// Tags extracts the scope tree of one file and passes each tag to write.
// Errors from write are returned unchanged.
func (s *Session) Tags(ctx context.Context, filename string, content []byte, write func(model.Tag) error) error {
	l, err := s.language(filename)
	if err != nil {
		return err
	}

	if s.exceedsLimit(len(content)) {
		return s.tooLarge(filename, len(content))
	}

	root, err := s.extract(ctx, l, content)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", filename, err)
	}

	e := &tags.Emitter{Path: filename, Language: l.Name, Write: write}
	return e.Emit(root)
}

func (s *Session) language(filename string) (*lang.Language, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return nil, fmt.Errorf("%s: %w", filename, ErrMissingExtension)
	}
	l, ok := s.resolve(ext)
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", filename, ErrUnknownParser, ext)
	}
	return l, nil
}

// reject answers a request whose content was skipped for exceeding the size
// limit. Unsupported files stay silent, as they do in GenerateTags.
func (s *Session) reject(enc *protocol.Encoder, filename string, size int) error {
	if _, err := s.language(filename); err != nil {
		s.log.Debug("no tags generated", "file", filename, "reason", err)
		return nil
	}
	err := s.tooLarge(filename, size)
	s.log.Warn("failed to generate tags", "file", filename, "err", err)
	return enc.Write(protocol.ErrorReply{Message: err.Error()})
}
