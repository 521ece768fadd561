// Package adaptation implements the neurotype-keyed content transformation
// engine: recommended adaptation bundles, deterministic content/presentation/
// pacing transforms, and an optional worker-pool offload facade.
package adaptation

import (
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTATION RULE TABLE
// Neurotype dispatch is a closed data table: extending the engine means
// adding a row, not another conditional. Unrecognized neurotypes resolve to
// the "other" row, so unknown input and "other" produce identical bundles.
// ══════════════════════════════════════════════════════════════════════════════

// bundleTable holds the recommended adaptation bundle per neurotype.
var bundleTable = map[learner.Neurotype]content.AdaptationSet{
	learner.NeurotypeDyslexia: {
		Content:      shared.Tags{"paragraph_splitting", "key_term_emphasis", "phonetic_hints"},
		Presentation: shared.Tags{"dyslexic_font", "wide_spacing", "cream_background"},
		Pacing:       shared.Tags{"extended_time", "reading_checkpoints"},
		Support:      shared.Tags{"text_to_speech", "word_highlighting", "dictionary"},
	},
	learner.NeurotypeADHD: {
		Content:      shared.Tags{"short_sections", "progress_markers", "interactive_elements"},
		Presentation: shared.Tags{"reduced_animation", "minimal_distractions", "clear_navigation"},
		Pacing:       shared.Tags{"frequent_breaks", "chunked_sessions"},
		Support:      shared.Tags{"focus_timer", "progress_tracker", "reminder_prompts"},
	},
	learner.NeurotypeAutismSpectrum: {
		Content:      shared.Tags{"literal_language", "numbered_steps", "explicit_expectations"},
		Presentation: shared.Tags{"structured_layout", "predictable_navigation", "muted_colors"},
		Pacing:       shared.Tags{"consistent_routine", "advance_notice"},
		Support:      shared.Tags{"visual_schedule", "sensory_break_option", "glossary"},
	},
	learner.NeurotypeCombined: {
		Content:      shared.Tags{"short_sections", "key_term_emphasis", "literal_language"},
		Presentation: shared.Tags{"wide_spacing", "reduced_animation", "structured_layout"},
		Pacing:       shared.Tags{"extended_time", "frequent_breaks"},
		Support:      shared.Tags{"text_to_speech", "focus_timer", "visual_schedule"},
	},
	learner.NeurotypeOther: {
		Content:      shared.Tags{"standard_formatting"},
		Presentation: shared.Tags{"default_theme"},
		Pacing:       shared.Tags{"standard_pace"},
		Support:      shared.Tags{"help_center"},
	},
}

// SupportTool is one entry of the neurotype-keyed support tool list.
type SupportTool struct {
	// Type identifies the tool for the rendering layer.
	Type string `json:"type"`

	// Enabled is always true for recommended tools.
	Enabled bool `json:"enabled"`
}

// supportToolTable holds the fixed, ordered support tool list per neurotype.
var supportToolTable = map[learner.Neurotype][]string{
	learner.NeurotypeDyslexia:       {"text_to_speech", "word_highlighting", "dictionary"},
	learner.NeurotypeADHD:           {"focus_timer", "progress_tracker", "break_reminder"},
	learner.NeurotypeAutismSpectrum: {"visual_schedule", "glossary", "sensory_settings"},
	learner.NeurotypeCombined:       {"text_to_speech", "focus_timer", "visual_schedule"},
	learner.NeurotypeOther:          {"help_center"},
}

// neurotypeTimeFactor holds the pacing multiplier per neurotype.
var neurotypeTimeFactor = map[learner.Neurotype]float64{
	learner.NeurotypeDyslexia: 1.25,
	learner.NeurotypeADHD:     1.1,
}

// RecommendedAdaptations returns the adaptation bundle for a neurotype.
// Pure table lookup; unrecognized input falls back to the "other" row and
// returns a byte-identical bundle.
func RecommendedAdaptations(neurotype learner.Neurotype) content.AdaptationSet {
	return bundleTable[neurotype.Canonical()].Clone()
}

// SupportToolsFor returns the ordered support tool list for a neurotype.
func SupportToolsFor(neurotype learner.Neurotype) []SupportTool {
	names := supportToolTable[neurotype.Canonical()]
	tools := make([]SupportTool, len(names))
	for i, name := range names {
		tools[i] = SupportTool{Type: name, Enabled: true}
	}
	return tools
}

// TimeFactorFor returns the neurotype pacing multiplier (1.0 when none).
func TimeFactorFor(neurotype learner.Neurotype) float64 {
	if f, ok := neurotypeTimeFactor[neurotype.Canonical()]; ok {
		return f
	}
	return 1.0
}
