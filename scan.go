package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/scopetags/internal/discover"
	"github.com/phobologic/scopetags/internal/lang"
	"github.com/phobologic/scopetags/internal/model"
	"github.com/phobologic/scopetags/internal/protocol"
	"github.com/phobologic/scopetags/internal/toon"
)

type scanOptions struct {
	langs   []string
	exclude []string
	format  string
}

func (a *app) scanCmd() *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Print tags for every supported file under a directory",
		Long: `scan walks root (default ".") and prints the tags of every supported
file, one file at a time. Inside a git work tree only files known to git are
read; elsewhere the root .gitignore is honoured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return a.scan(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&opts.langs, "langs", "l", nil, "comma-separated languages to include")
	f.StringArrayVar(&opts.exclude, "exclude", nil, "doublestar pattern of paths to skip (repeatable)")
	f.StringVar(&opts.format, "format", "json", "output format: json or toon")

	return cmd
}

func (a *app) scan(cmd *cobra.Command, root string, opts scanOptions) error {
	if opts.format != "json" && opts.format != "toon" {
		return fmt.Errorf("unsupported format %q", opts.format)
	}
	for _, name := range opts.langs {
		if _, ok := lang.Languages[name]; !ok {
			return fmt.Errorf("unsupported language %q", name)
		}
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	files, err := discover.Files(root, discover.Options{Languages: opts.langs, Exclude: opts.exclude})
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no parseable files found")
	}
	a.log.Info("scanning", "root", root, "files", len(files))

	ctx := cmd.Context()
	s := a.newSession()
	enc := protocol.NewEncoder(a.stdout)
	var scanned []toon.File

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		source, err := os.ReadFile(filepath.Join(root, f.Path))
		if err != nil {
			a.log.Warn("failed to read file", "file", f.Path, "err", err)
			continue
		}
		path := filepath.ToSlash(f.Path)

		if opts.format == "json" {
			if err := s.GenerateTags(ctx, enc, path, source); err != nil {
				return err
			}
			continue
		}

		tf := toon.File{Path: path, Language: f.Language}
		err = s.Tags(ctx, path, source, func(t model.Tag) error {
			tf.Tags = append(tf.Tags, t)
			return nil
		})
		if err != nil {
			a.log.Warn("failed to generate tags", "file", path, "err", err)
			tf.Tags = nil
		}
		scanned = append(scanned, tf)
	}

	if opts.format == "toon" {
		if _, err := fmt.Fprintln(a.stdout, toon.Encode(filepath.Base(root), scanned)); err != nil {
			return fmt.Errorf("%w: %v", protocol.ErrOutput, err)
		}
	}
	return nil
}
