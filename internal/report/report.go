// Package report converts the grading model's free-text reply into a
// validated grade report. The reply should follow the section labels the
// prompt instructed, but is not guaranteed to; parsing is tolerant and
// prefers a degraded report over total failure. Only the absence of any
// recognizable score is fatal.
package report

// Section labels the prompt instructs the model to emit. The parser matches
// against these exact strings (tolerant to markup and punctuation), so the
// prompt and parser always share one target.
const (
	SectionProblems     = "Problems"
	SectionStrengths    = "Strengths"
	SectionImprovements = "Areas for Improvement"
	SectionSuggestions  = "Suggestions"
	SectionComment      = "Overall Comment"
)

// Sections returns the instructed section labels in report order.
func Sections() []string {
	return []string{
		SectionProblems,
		SectionStrengths,
		SectionImprovements,
		SectionSuggestions,
		SectionComment,
	}
}

// Problem is per-problem feedback. Score is nil when the model gave no
// sub-score for the problem.
type Problem struct {
	Label    string `json:"label"`
	Score    *int   `json:"score"`
	Feedback string `json:"feedback"`
}

// Report is the structured grade produced from one model reply. OverallScore
// is always present; every other field may be empty in a degraded report.
// A Report is never mutated after Parse returns it.
type Report struct {
	OverallScore int       `json:"overall_score"`
	Problems     []Problem `json:"problems"`
	Strengths    []string  `json:"strengths"`
	Improvements []string  `json:"improvements"`
	Suggestions  []string  `json:"suggestions"`
	Comment      string    `json:"comment"`
}
