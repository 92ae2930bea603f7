package config

import "strings"

// LinkPolicy decides what happens to unresolved internal references.
type LinkPolicy string

const (
	LinkPolicyWarn LinkPolicy = "warn"
	LinkPolicyFail LinkPolicy = "fail"
)

// NormalizeLinkPolicy maps a raw string to a LinkPolicy, returning "" for
// unknown values.
func NormalizeLinkPolicy(raw string) LinkPolicy {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LinkPolicyWarn):
		return LinkPolicyWarn
	case string(LinkPolicyFail):
		return LinkPolicyFail
	default:
		return ""
	}
}

// PublishMode selects between staged (atomic swap) and in-place publishing.
type PublishMode string

const (
	PublishModeStaged  PublishMode = "staged"
	PublishModeInPlace PublishMode = "in_place"
)

// NormalizePublishMode maps a raw string to a PublishMode, returning "" for
// unknown values. The hyphenated spelling is accepted as an alias.
func NormalizePublishMode(raw string) PublishMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(PublishModeStaged):
		return PublishModeStaged
	case string(PublishModeInPlace), "in-place", "inplace":
		return PublishModeInPlace
	default:
		return ""
	}
}

// RenderEngine names the engine that turns page bodies into documents.
type RenderEngine string

const (
	RenderEngineHTML        RenderEngine = "html"
	RenderEnginePassthrough RenderEngine = "passthrough"
)

// NormalizeRenderEngine maps a raw string to a RenderEngine, returning ""
// for unknown values.
func NormalizeRenderEngine(raw string) RenderEngine {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RenderEngineHTML):
		return RenderEngineHTML
	case string(RenderEnginePassthrough):
		return RenderEnginePassthrough
	default:
		return ""
	}
}
