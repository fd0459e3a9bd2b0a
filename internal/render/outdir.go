package render

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/salwks/sdsmcp/internal/apperr"
	"github.com/salwks/sdsmcp/internal/specdoc"
)

// OutputGuard keeps exported documents inside a base directory.
type OutputGuard struct {
	BaseDir string
}

// NewOutputGuard roots a guard at baseDir (defaults to the working directory).
func NewOutputGuard(baseDir string) (*OutputGuard, error) {
	if baseDir == "" {
		var err error
		baseDir, err = os.Getwd()
		if err != nil {
			return nil, apperr.FileIO("resolve output dir", err)
		}
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, apperr.FileIO("resolve output dir", err)
	}
	return &OutputGuard{BaseDir: absBase}, nil
}

// SessionDir returns the absolute directory for one session's documents.
func (g *OutputGuard) SessionDir(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", apperr.Validation("export", "session_id", "is required")
	}
	clean := filepath.Clean(sessionID)
	if filepath.IsAbs(clean) {
		return "", apperr.Validation("export", "session_id", "absolute paths are not allowed")
	}
	abs := filepath.Clean(filepath.Join(g.BaseDir, clean))
	if !strings.HasPrefix(abs, g.BaseDir+string(os.PathSeparator)) {
		return "", apperr.Validation("export", "session_id", "%q escapes the output directory", sessionID)
	}
	return abs, nil
}

// ExportSession writes spec under the session's directory inside base.
func ExportSession(base string, spec *specdoc.Specification, formats []Format, sessionID string, now time.Time) ([]string, error) {
	guard, err := NewOutputGuard(base)
	if err != nil {
		return nil, err
	}
	dir, err := guard.SessionDir(sessionID)
	if err != nil {
		return nil, err
	}
	return Export(dir, spec, formats, sessionID, now)
}
