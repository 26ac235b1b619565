package report

import (
	"strconv"
	"strings"
	"time"
)

const renderTimeLayout = "2006-01-02 15:04"

// Render serializes a report as the human-readable grade document offered
// for download. Output is deterministic for a given report: sections appear
// in instructed order and empty sections are omitted.
func Render(r *Report, student, model string, gradedAt time.Time) string {
	var b strings.Builder

	b.WriteString("HOMEWORK GRADE REPORT\n")
	b.WriteString("=====================\n")
	writeField(&b, "Student", student)
	writeField(&b, "Model", model)
	if !gradedAt.IsZero() {
		writeField(&b, "Date", gradedAt.Format(renderTimeLayout))
	}
	b.WriteString("Score: " + strconv.Itoa(r.OverallScore) + "/100\n")

	if len(r.Problems) > 0 {
		b.WriteString("\n" + SectionProblems + ":\n")
		for _, p := range r.Problems {
			b.WriteString(renderProblem(p) + "\n")
		}
	}

	writeList(&b, SectionStrengths, r.Strengths)
	writeList(&b, SectionImprovements, r.Improvements)
	writeList(&b, SectionSuggestions, r.Suggestions)

	if r.Comment != "" {
		b.WriteString("\n" + SectionComment + ":\n")
		b.WriteString(r.Comment + "\n")
	}

	return b.String()
}

func renderProblem(p Problem) string {
	label := p.Label
	if label == "" {
		label = "Problem"
	}

	parts := []string{label + ":"}
	if p.Score != nil {
		parts = append(parts, strconv.Itoa(*p.Score)+"/100 -")
	}
	if p.Feedback != "" {
		parts = append(parts, p.Feedback)
	}

	return strings.Join(parts, " ")
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(name + ": " + value + "\n")
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + label + ":\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}
