// Package discover enumerates content source files under the content root.
// It yields (relative path, bytes, modification time) tuples in a
// deterministic lexical order; everything downstream is a pure function of
// those tuples.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"

	"git.home.luguber.info/inful/sitegen/internal/meta"
)

// IgnoreFile is the optional gitignore-syntax exclusion file at the content root.
const IgnoreFile = ".sitegenignore"

// LayoutsDir is the reserved directory for layout templates; never content.
const LayoutsDir = "_layouts"

// SourceFile is one discovered content file.
type SourceFile struct {
	RelPath string
	Raw     []byte
	ModTime time.Time
}

// contentExtensions lists the file extensions treated as content.
var contentExtensions = map[string]bool{
	".md":   true,
	".html": true,
}

// IsContentPath reports whether the path has a content extension.
func IsContentPath(relPath string) bool {
	return contentExtensions[strings.ToLower(filepath.Ext(relPath))]
}

// Scanner walks a content root applying the reserved-prefix and ignore rules.
type Scanner struct {
	root          string
	includeDrafts bool
	ignore        *gitignore.GitIgnore
}

// NewScanner creates a scanner over root. When includeDrafts is set, files
// and directories carrying the draft marker are discovered too; the layouts
// directory is never content.
func NewScanner(root string, includeDrafts bool) (*Scanner, error) {
	s := &Scanner{root: root, includeDrafts: includeDrafts}

	ignorePath := filepath.Join(root, IgnoreFile)
	if _, err := os.Stat(ignorePath); err == nil {
		ign, err := gitignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", IgnoreFile, err)
		}
		s.ignore = ign
	}
	return s, nil
}

// Scan returns all content files under the root in lexical path order.
func (s *Scanner) Scan() ([]SourceFile, error) {
	var files []SourceFile

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(s.root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if s.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.wantFile(rel, d.Name()) {
			return nil
		}

		raw, readErr := os.ReadFile(p)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", rel, readErr)
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("stat %s: %w", rel, infoErr)
		}
		files = append(files, SourceFile{RelPath: rel, Raw: raw, ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *Scanner) skipDir(name string) bool {
	if name == LayoutsDir {
		return true
	}
	if strings.HasPrefix(name, "_") && !s.includeDrafts {
		return true
	}
	return false
}

func (s *Scanner) wantFile(rel, name string) bool {
	if !IsContentPath(name) {
		return false
	}
	// The draft marker may also sit after a date prefix, so the filename
	// alone is not enough here.
	if !s.includeDrafts && meta.IsDraftPath(rel) {
		return false
	}
	if s.ignore != nil && s.ignore.MatchesPath(rel) {
		return false
	}
	return true
}
