package render

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/salwks/sdsmcp/internal/apperr"
	"github.com/salwks/sdsmcp/internal/specdoc"
)

// Format names one exported document.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatOpenAPI  Format = "openapi"
	FormatSchema   Format = "schema"
	FormatAll      Format = "all"
)

// AllFormats lists every concrete format in export order.
var AllFormats = []Format{FormatMarkdown, FormatJSON, FormatOpenAPI, FormatSchema}

var fileNames = map[Format]string{
	FormatMarkdown: "specification.md",
	FormatJSON:     "tasks.json",
	FormatOpenAPI:  "openapi.yaml",
	FormatSchema:   "schema.sql",
}

// ParseFormat accepts a format name; "" means all.
func ParseFormat(s string) ([]Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" || f == FormatAll {
		return AllFormats, nil
	}
	if _, ok := fileNames[f]; !ok {
		return nil, apperr.Validation("export", "format", "unsupported format %q (want markdown, json, openapi, schema or all)", s)
	}
	return []Format{f}, nil
}

// Document renders spec in one format.
func Document(spec *specdoc.Specification, f Format, sessionID string, now time.Time) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return Markdown(spec, sessionID, now)
	case FormatJSON:
		return TasksJSON(spec)
	case FormatOpenAPI:
		return OpenAPI(spec)
	case FormatSchema:
		return Schema(spec), nil
	default:
		return nil, apperr.Validation("export", "format", "unsupported format %q", f)
	}
}

// Export writes each format into dir and returns the written paths in order.
func Export(dir string, spec *specdoc.Specification, formats []Format, sessionID string, now time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.FileIO("create output dir", err)
	}

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		data, err := Document(spec, f, sessionID, now)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fileNames[f])
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, apperr.FileIO("write "+fileNames[f], err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
