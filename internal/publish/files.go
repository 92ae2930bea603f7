package publish

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// writeDocument places one document under baseDir, writing through a temp
// file so a crash never leaves a half-written destination.
func writeDocument(baseDir string, doc Document) error {
	if doc.Data == nil && doc.SourcePath == "" {
		return fmt.Errorf("document %s has no content source", doc.OutputFile)
	}

	dest := filepath.Join(baseDir, filepath.FromSlash(doc.OutputFile))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	tmp := dest + ".tmp"
	var err error
	if doc.Data != nil {
		err = os.WriteFile(tmp, doc.Data, 0o644)
	} else {
		err = copyFile(doc.SourcePath, tmp)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// collectFiles returns the slash-separated relative paths of all regular
// files under root, sorted. A missing root yields an empty list.
func collectFiles(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// removeStale deletes the given relative paths from the output directory and
// sweeps up directories the removals emptied. Individual failures are logged
// and skipped.
func (p *Publisher) removeStale(stale []string) {
	for _, rel := range stale {
		full := filepath.Join(p.outDir, filepath.FromSlash(rel))
		if err := os.Remove(full); err != nil {
			slog.Warn("Failed to remove stale file", logfields.Path(rel), logfields.Error(err))
			continue
		}
		slog.Debug("Removed stale file", logfields.Path(rel))
		removeEmptyParents(p.outDir, full)
	}
	if len(stale) > 0 {
		slog.Info("Pruned stale output", logfields.Count(len(stale)), logfields.Output(p.outDir))
	}
}

// removeEmptyParents removes now-empty directories between file and root,
// stopping at the first non-empty one.
func removeEmptyParents(root, file string) {
	rootAbs := filepath.Clean(root)
	dir := filepath.Dir(file)
	for dir != rootAbs && strings.HasPrefix(dir, rootAbs+string(filepath.Separator)) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
