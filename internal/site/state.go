package site

import (
	"git.home.luguber.info/inful/sitepress/internal/content"
	"git.home.luguber.info/inful/sitepress/internal/gitinfo"
	"git.home.luguber.info/inful/sitepress/internal/incremental"
	"git.home.luguber.info/inful/sitepress/internal/links"
	"git.home.luguber.info/inful/sitepress/internal/publish"
	"git.home.luguber.info/inful/sitepress/internal/routes"
)

// State carries everything one run accumulates while moving through the
// pipeline. Each run owns its State exclusively: no locking, no sharing.
type State struct {
	Units     []content.Unit         // Survivors of scan and parse, sorted by relative path
	Table     *routes.Table          // Built by the routes stage
	Links     links.Result           // Filled by the validate stage
	Docs      []publish.Document     // Rendered output, ready for the publisher
	Signature *incremental.Signature // Input signature of this run
	Git       *gitinfo.Info          // Source provenance, nil outside a git work tree

	Report *Report

	// allowSkip gates the unchanged-input short circuit to full runs;
	// verification passes always execute their complete pipeline.
	allowSkip     bool
	skipRemaining bool
}

func newState(report *Report) *State {
	return &State{Report: report}
}
