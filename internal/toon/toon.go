// Package toon implements TOON (Token-Oriented Object Notation) encoding
// of scanned tags.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/scopetags/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// File is one scanned file and the tags generated for it, in emission order.
type File struct {
	Path     string
	Language string
	Tags     []model.Tag
}

// Encode renders a scan of root as TOON: a files table followed by a tags
// table. Tags keep their emission order; files keep the given order.
func Encode(root string, files []File) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(root)))

	var fileRows [][]string
	for i := range files {
		f := &files[i]
		fileRows = append(fileRows, []string{
			f.Path,
			f.Language,
			fmt.Sprintf("%d", len(f.Tags)),
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "language", "tags"}, fileRows))

	var tagRows [][]string
	for i := range files {
		f := &files[i]
		for j := range f.Tags {
			tag := &f.Tags[j]
			scope := ""
			if tag.Scope != nil {
				scope = *tag.Scope
			}
			tagRows = append(tagRows, []string{
				tag.Path,
				fmt.Sprintf("%d", tag.Line),
				string(tag.Kind),
				tag.Name,
				scope,
			})
		}
	}
	parts = append(parts, formatTabular("tags", []string{"path", "line", "kind", "name", "scope"}, tagRows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
