package adaptation

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT TRANSFORM
// The transform is a pure function of (content, profile): the synchronous
// path and the worker-offloaded path call the same code and must produce
// identical output.
// ══════════════════════════════════════════════════════════════════════════════

// PresentationSettings describe how the rendering layer should display the
// adapted content. Explicit user preferences always win over the neurotype
// defaults.
type PresentationSettings struct {
	FontFamily     string  `json:"font_family"`
	FontSize       int     `json:"font_size"`
	LineSpacing    float64 `json:"line_spacing"`
	ColorScheme    string  `json:"color_scheme"`
	AnimationLevel string  `json:"animation_level"`
	Layout         string  `json:"layout"`
}

// PacingSettings describe the adapted time expectations.
type PacingSettings struct {
	// EstimatedTime is the adapted duration, never below one minute.
	EstimatedTime shared.Minutes `json:"estimated_time"`
}

// AdaptedContent is the result of adapting one content item to one learner.
// Consumed by the rendering layer.
type AdaptedContent struct {
	ContentID    string               `json:"content_id"`
	Title        string               `json:"title"`
	Body         string               `json:"body"`
	Presentation PresentationSettings `json:"presentation"`
	Pacing       PacingSettings       `json:"pacing"`
	SupportTools []SupportTool        `json:"support_tools"`
	Applied      content.AdaptationSet `json:"-"`
}

// adhdMaxSentences bounds subsection length for the ADHD restructuring rule.
const adhdMaxSentences = 3

// dyslexiaMaxSentences bounds paragraph length before splitting.
const dyslexiaMaxSentences = 2

// adaptSync computes the full deterministic transform. Both the synchronous
// fallback path and the worker-offloaded path go through this function.
func adaptSync(item *content.Item, profile *learner.Profile) *AdaptedContent {
	neurotype := profile.Neurotype.Canonical()

	return &AdaptedContent{
		ContentID:    item.ID,
		Title:        item.Title,
		Body:         transformBody(item.Body, neurotype),
		Presentation: presentationFor(neurotype, profile.Preferences),
		Pacing: PacingSettings{
			EstimatedTime: AdjustTimeEstimate(item.EstimatedDuration, profile),
		},
		SupportTools: SupportToolsFor(neurotype),
		Applied:      RecommendedAdaptations(neurotype),
	}
}

// transformBody applies the neurotype-specific content transform.
// Combined and other profiles pass the body through untouched; the bundle
// tags attached to the item carry the adaptation hints instead.
func transformBody(body string, neurotype learner.Neurotype) string {
	switch neurotype {
	case learner.NeurotypeDyslexia:
		return emphasizeKeyTerms(splitLongParagraphs(body))
	case learner.NeurotypeADHD:
		return restructureForFocus(body)
	case learner.NeurotypeAutismSpectrum:
		return assertivePhrasing(numberSteps(body))
	default:
		return body
	}
}

// splitLongParagraphs breaks paragraphs longer than dyslexiaMaxSentences
// sentences into shorter ones.
func splitLongParagraphs(body string) string {
	paragraphs := strings.Split(body, "\n\n")
	var out []string
	for _, p := range paragraphs {
		sentences := splitSentences(p)
		if len(sentences) <= dyslexiaMaxSentences {
			out = append(out, p)
			continue
		}
		for i := 0; i < len(sentences); i += dyslexiaMaxSentences {
			end := i + dyslexiaMaxSentences
			if end > len(sentences) {
				end = len(sentences)
			}
			out = append(out, strings.Join(sentences[i:end], " "))
		}
	}
	return strings.Join(out, "\n\n")
}

// keyTermPattern matches standalone words of ten letters or more. Long words
// carry the load of a sentence and get emphasized for dyslexic readers.
var keyTermPattern = regexp.MustCompile(`\b[A-Za-z]{10,}\b`)

// emphasizeKeyTerms wraps long words in markdown emphasis. Already
// emphasized text is left alone.
func emphasizeKeyTerms(body string) string {
	return keyTermPattern.ReplaceAllStringFunc(body, func(w string) string {
		return "**" + w + "**"
	})
}

// restructureForFocus splits bodies with more than two paragraphs into
// numbered subsections of at most adhdMaxSentences sentences each.
func restructureForFocus(body string) string {
	paragraphs := strings.Split(body, "\n\n")
	if len(paragraphs) <= 2 {
		return body
	}

	sentences := splitSentences(strings.Join(paragraphs, " "))
	var sections []string
	section := 1
	for i := 0; i < len(sentences); i += adhdMaxSentences {
		end := i + adhdMaxSentences
		if end > len(sentences) {
			end = len(sentences)
		}
		sections = append(sections, fmt.Sprintf("### Part %d\n%s", section, strings.Join(sentences[i:end], " ")))
		section++
	}
	return strings.Join(sections, "\n\n")
}

// numberedLine matches lines that already carry explicit numbering.
var numberedLine = regexp.MustCompile(`^\s*\d+[.)]`)

// numberSteps numbers unformatted multi-line step lists so the sequence of
// actions is explicit.
func numberSteps(body string) string {
	lines := strings.Split(body, "\n")

	// Single-line bodies and already numbered lists stay as they are.
	bare := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" && !numberedLine.MatchString(l) {
			bare++
		}
	}
	if bare < 2 {
		return body
	}

	n := 1
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" || numberedLine.MatchString(l) {
			continue
		}
		lines[i] = fmt.Sprintf("%d. %s", n, trimmed)
		n++
	}
	return strings.Join(lines, "\n")
}

// Hedging replacements for assertive phrasing, applied in order.
var hedgingReplacements = []struct {
	pattern *regexp.Regexp
	with    string
}{
	{regexp.MustCompile(`(?i)\btry to\s+`), ""},
	{regexp.MustCompile(`(?i)\battempt to\s+`), ""},
	{regexp.MustCompile(`(?i)\b(?:may|might|could|should)\b`), "will"},
}

// assertivePhrasing replaces hedging modals with assertive phrasing.
func assertivePhrasing(body string) string {
	for _, r := range hedgingReplacements {
		body = r.pattern.ReplaceAllString(body, r.with)
	}
	return body
}

// sentenceEnd matches sentence boundaries conservatively.
var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// splitSentences splits text into sentences, keeping terminal punctuation.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	var out []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESENTATION & PACING
// ══════════════════════════════════════════════════════════════════════════════

// presentationFor derives display settings from the neurotype defaults,
// then overlays the learner's explicit preferences.
func presentationFor(neurotype learner.Neurotype, prefs learner.Preferences) PresentationSettings {
	s := PresentationSettings{
		FontFamily:     "sans-serif",
		FontSize:       16,
		LineSpacing:    1.5,
		ColorScheme:    "standard",
		AnimationLevel: "full",
		Layout:         "flow",
	}

	switch neurotype {
	case learner.NeurotypeDyslexia:
		s.FontFamily = "open-dyslexic"
		s.FontSize = 18
		s.LineSpacing = 2.0
		s.ColorScheme = "cream"
	case learner.NeurotypeADHD:
		s.AnimationLevel = "reduced"
		s.Layout = "chunked"
	case learner.NeurotypeAutismSpectrum:
		s.ColorScheme = "muted"
		s.Layout = "structured"
	case learner.NeurotypeCombined:
		s.FontSize = 18
		s.LineSpacing = 2.0
		s.AnimationLevel = "reduced"
		s.Layout = "structured"
	}

	// Explicit user preferences always override profile defaults.
	if prefs.FontFamily != "" {
		s.FontFamily = prefs.FontFamily
	}
	if prefs.FontSize > 0 {
		s.FontSize = prefs.FontSize
	}
	if prefs.LineSpacing > 0 {
		s.LineSpacing = prefs.LineSpacing
	}
	if prefs.HighContrast {
		s.ColorScheme = "high-contrast"
	}
	if prefs.ReducedAnimations {
		s.AnimationLevel = "reduced"
	}

	return s
}

// experienceDiscount applies once a learner has completed more than 10 items.
const experienceDiscount = 0.9

// AdjustTimeEstimate computes the adapted duration:
// round(base × speedFactor × neurotypeFactor × experienceDiscount), clamped
// to a minimum of one minute.
func AdjustTimeEstimate(base shared.Minutes, profile *learner.Profile) shared.Minutes {
	estimate := float64(base) * profile.LearningSpeed.Factor() * TimeFactorFor(profile.Neurotype)
	if profile.IsExperienced() {
		estimate *= experienceDiscount
	}

	minutes := shared.Minutes(math.Round(estimate))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
