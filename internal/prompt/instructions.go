package prompt

import (
	"fmt"
	"strings"

	"github.com/pmeredith/marksman/internal/report"
)

// DefaultLanguage is the feedback language when none is configured. The
// system was built for grading Hebrew math homework.
const DefaultLanguage = "Hebrew"

const instructionHeader = `You are an expert math teacher grading a student's homework against the reference material provided below.

Analyze the submission and provide:
1. An overall score out of 100
2. Detailed feedback for each problem you can identify
3. Areas where the student excelled
4. Areas needing improvement
5. Specific suggestions for better understanding

Consider mathematical accuracy, problem-solving approach, shown work and steps, conceptual understanding, and clarity of presentation. Be fair, constructive, and encouraging.`

const instructionFormat = `Respond in exactly this format, keeping the section labels in English exactly as written:

Score: <number>/100

%[1]s:
Problem 1: <score>/100 - <feedback>
Problem 2: <score>/100 - <feedback>

%[2]s:
- <what the student did well>

%[3]s:
- <what needs improvement>

%[4]s:
- <specific study suggestions>

%[5]s:
<an encouraging closing comment>`

// instructions renders the fixed instruction block: the grading rubric, the
// required output sections with their exact labels, and the target feedback
// language. The block is constant for a given builder configuration.
func (b *Builder) instructions() string {
	var s strings.Builder

	s.WriteString(instructionHeader)
	s.WriteString("\n\n")
	fmt.Fprintf(&s, instructionFormat,
		report.SectionProblems,
		report.SectionStrengths,
		report.SectionImprovements,
		report.SectionSuggestions,
		report.SectionComment,
	)
	s.WriteString("\n\n")
	fmt.Fprintf(&s, "Write all feedback text in %s. If a section does not apply, leave it empty but keep its label.", b.language)

	return s.String()
}
