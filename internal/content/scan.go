package content

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// Scanner enumerates eligible content files under a single root directory.
// Scanning is stateless between calls: re-scanning is safe and idempotent.
type Scanner struct {
	root      string
	skipPaths map[string]struct{}
}

// NewScanner creates a scanner for root. skipPaths lists files or directories
// (absolute or relative to the working directory) excluded from the scan,
// typically the output directory when it nests under the content root.
func NewScanner(root string, skipPaths ...string) *Scanner {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		if abs, err := filepath.Abs(p); err == nil {
			skip[abs] = struct{}{}
		}
	}
	return &Scanner{root: root, skipPaths: skip}
}

// Scan walks the root and returns all eligible units sorted by relative path.
// The sort keeps downstream diagnostics (collision reporting, the published
// file listing) independent of file system enumeration order.
//
// An unreadable root or a failure during traversal is fatal.
func (s *Scanner) Scan() ([]Unit, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, errors.IOFailed("scan", s.root, err)
	}
	if !info.IsDir() {
		return nil, errors.IOFailed("scan", s.root, os.ErrInvalid).
			WithContext("reason", "content root is not a directory")
	}

	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return nil, errors.IOFailed("scan", s.root, err)
	}

	var units []Unit
	walkErr := filepath.Walk(rootAbs, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if s.skipped(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Hidden files and directories never publish.
		if strings.HasPrefix(info.Name(), ".") && path != rootAbs {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		kind, eligible := kindForExtension(path)
		if !eligible {
			return nil
		}

		relPath, err := filepath.Rel(rootAbs, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		section := ""
		if dir := filepath.ToSlash(filepath.Dir(relPath)); dir != "." {
			section = dir
		}

		units = append(units, Unit{
			Path:         path,
			RelativePath: relPath,
			Section:      section,
			Name:         strings.TrimSuffix(info.Name(), filepath.Ext(info.Name())),
			Extension:    strings.ToLower(filepath.Ext(info.Name())),
			Kind:         kind,
		})

		slog.Debug("Discovered content file",
			logfields.Path(relPath),
			slog.String("kind", string(kind)))

		return nil
	})
	if walkErr != nil {
		return nil, errors.IOFailed("scan", s.root, walkErr)
	}

	sort.Slice(units, func(i, j int) bool {
		return units[i].RelativePath < units[j].RelativePath
	})

	slog.Info("Content scan complete",
		logfields.Path(s.root),
		logfields.Count(len(units)))

	return units, nil
}

func (s *Scanner) skipped(path string) bool {
	_, ok := s.skipPaths[path]
	return ok
}
