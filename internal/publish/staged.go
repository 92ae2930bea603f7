package publish

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// Suffixes of the transient sibling directories a staged publish uses.
// Exported so scanners can exclude them when the output sits inside the
// content root.
const (
	StageDirSuffix  = "_stage"
	BackupDirSuffix = ".prev"
)

// beginStaging creates an isolated staging directory for atomic publishing.
// Residue from a crashed earlier run is discarded first.
func (p *Publisher) beginStaging() error {
	// Sibling staging dir: <output>_stage (not inside output)
	stage := p.outDir + StageDirSuffix
	if err := os.RemoveAll(stage); err != nil {
		return err
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return err
	}
	p.stageDir = stage
	slog.Debug("Initialized staging directory", "staging", stage, "final", p.outDir)
	return nil
}

// finalizeStaging atomically promotes the staging directory to the final
// output location.
// Strategy:
//  1. Move existing outDir (if it exists) to outDir.prev, removing an
//     earlier backup first.
//  2. Rename staging -> outDir.
//  3. Remove the backup best-effort; a leftover backup is only a warning.
func (p *Publisher) finalizeStaging() error {
	if p.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	if _, err := os.Stat(p.stageDir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	prev := p.outDir + BackupDirSuffix
	if _, err := os.Stat(prev); err == nil {
		// The previous backup may be locked/in-use; retry before escalating.
		if err := p.backupRetry.Do(func() error { return removeAllStrict(prev) }); err != nil {
			_ = filepath.Walk(prev, func(path string, _ os.FileInfo, walkErr error) error {
				if walkErr == nil {
					_ = os.Chmod(path, 0o755)
				}
				return nil
			})
			if err := os.RemoveAll(prev); err != nil {
				slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
				// Continue anyway; the backup rename below will fail if prev still exists.
			}
		}
	}

	if _, err := os.Stat(p.outDir); err == nil {
		if err := os.Rename(p.outDir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(p.stageDir, p.outDir); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	p.stageDir = ""

	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Info("Promoted staging directory", logfields.Output(p.outDir))
	return nil
}

// abortStaging removes any staging directory after a failed publish to avoid
// orphaned temp dirs.
func (p *Publisher) abortStaging() {
	if p.stageDir == "" {
		return
	}
	dir := p.stageDir
	p.stageDir = "" // prevent double cleanup
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", "staging", dir, logfields.Error(err))
	} else {
		slog.Debug("Removed staging directory after abort", "staging", dir)
	}
}

// removeAllStrict removes path and fails when anything survives the removal.
func removeAllStrict(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("path still exists: %s", path)
	}
	return nil
}
