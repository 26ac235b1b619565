package report

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	scorePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:overall\s+)?score\s*[:\-]?\s*(\d{1,3})\s*/\s*100`),
		regexp.MustCompile(`(\d{1,3})\s*/\s*100`),
		regexp.MustCompile(`(?i)\bscore\s*[:\-]?\s*(\d{1,3})\b`),
	}

	problemHeading = regexp.MustCompile(`(?i)^problem\s+(\d+)\b`)
	enumHeading    = regexp.MustCompile(`^(\d+)[.)]\s+`)
	bulletPrefix   = regexp.MustCompile(`^(?:[-*•◦]|\d+[.)])\s*`)
	subScore       = regexp.MustCompile(`(?i)(?:(\d{1,3})\s*/\s*100|\bscore\s*[:\-]?\s*(\d{1,3})\b)`)

	markupTrim = strings.NewReplacer("*", "", "_", "", "#", "", "`", "")
)

// sectionRule maps an instructed section label to its extraction strategy.
// Missing sections are simply never applied, leaving the report field at its
// empty default.
type sectionRule struct {
	label string
	apply func(r *Report, lines []string)
}

func sectionRules() []sectionRule {
	return []sectionRule{
		{SectionProblems, func(r *Report, lines []string) { r.Problems = parseProblems(lines) }},
		{SectionStrengths, func(r *Report, lines []string) { r.Strengths = listItems(lines) }},
		{SectionImprovements, func(r *Report, lines []string) { r.Improvements = listItems(lines) }},
		{SectionSuggestions, func(r *Report, lines []string) { r.Suggestions = listItems(lines) }},
		{SectionComment, func(r *Report, lines []string) { r.Comment = joinText(lines) }},
	}
}

// Parse converts a raw model reply into a Report. The overall score is
// required: raw text with no recognizable "NN/100" or "score: NN" pattern
// fails with an UnparsableError carrying the reply. Every other section is
// optional and defaults to empty rather than failing.
func Parse(raw string) (*Report, error) {
	score, ok := findScore(raw)
	if !ok {
		return nil, &UnparsableError{Raw: raw}
	}

	r := &Report{
		OverallScore: score,
		Problems:     []Problem{},
		Strengths:    []string{},
		Improvements: []string{},
		Suggestions:  []string{},
	}

	sections := splitSections(raw)
	for _, rule := range sectionRules() {
		if lines, ok := sections[strings.ToLower(rule.label)]; ok {
			rule.apply(r, lines)
		}
	}

	return r, nil
}

// findScore scans for the overall score, preferring an explicit
// "score NN/100" phrasing over a bare "NN/100" over a bare "score: NN".
// Values are clamped to [0, 100].
func findScore(raw string) (int, bool) {
	for _, pattern := range scorePatterns {
		m := pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		for _, group := range m[1:] {
			if group == "" {
				continue
			}
			n, err := strconv.Atoi(group)
			if err != nil {
				continue
			}
			return clampScore(n), true
		}
	}
	return 0, false
}

// splitSections walks the reply line by line, assigning content lines to the
// most recently seen section header. Header matching tolerates markdown
// emphasis, surrounding punctuation, case, and trailing content after a
// colon on the header line.
func splitSections(raw string) map[string][]string {
	sections := make(map[string][]string)
	current := ""

	for line := range strings.Lines(strings.ReplaceAll(raw, "\r\n", "\n")) {
		line = strings.TrimRight(line, "\n")

		label, rest, ok := matchHeader(line)
		if ok {
			current = strings.ToLower(label)
			sections[current] = []string{}
			if rest != "" {
				sections[current] = append(sections[current], rest)
			}
			continue
		}

		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}

	return sections
}

// matchHeader reports whether a line is one of the instructed section
// headers, returning the canonical label and any content trailing the
// header's colon.
func matchHeader(line string) (label, rest string, ok bool) {
	cleaned := cleanHeader(line)

	for _, candidate := range Sections() {
		if strings.EqualFold(cleaned, candidate) {
			return candidate, "", true
		}
	}

	head, tail, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}

	cleaned = cleanHeader(head)
	for _, candidate := range Sections() {
		if strings.EqualFold(cleaned, candidate) {
			return candidate, strings.TrimSpace(tail), true
		}
	}

	return "", "", false
}

func cleanHeader(s string) string {
	s = markupTrim.Replace(s)
	return strings.Trim(strings.TrimSpace(s), ":-. \t")
}

// parseProblems splits the problems section into entries on repeating
// "Problem N" headings or enumerated-list markers. Each entry captures its
// own sub-score when present; entries without one carry a nil score.
func parseProblems(lines []string) []Problem {
	var blocks [][]string

	for _, line := range lines {
		trimmed := strings.TrimSpace(markupTrim.Replace(line))
		if trimmed == "" {
			continue
		}

		if problemHeading.MatchString(trimmed) || enumHeading.MatchString(trimmed) {
			blocks = append(blocks, []string{trimmed})
			continue
		}

		if len(blocks) == 0 {
			// Content before the first heading forms an unlabeled entry.
			blocks = append(blocks, []string{})
		}
		blocks[len(blocks)-1] = append(blocks[len(blocks)-1], trimmed)
	}

	problems := make([]Problem, 0, len(blocks))
	for i, block := range blocks {
		problems = append(problems, parseProblem(i+1, block))
	}
	return problems
}

func parseProblem(ordinal int, lines []string) Problem {
	p := Problem{Label: "Problem " + strconv.Itoa(ordinal)}

	if len(lines) == 0 {
		return p
	}

	first := lines[0]
	if m := problemHeading.FindString(first); m != "" {
		p.Label = strings.TrimSpace(m)
		first = strings.TrimSpace(strings.TrimLeft(first[len(m):], ":- \t"))
	} else if m := enumHeading.FindString(first); m != "" {
		first = strings.TrimSpace(first[len(m):])
	}

	body := append([]string{first}, lines[1:]...)
	text := joinText(body)

	if m := subScore.FindStringSubmatch(text); m != nil {
		for _, group := range m[1:] {
			if group == "" {
				continue
			}
			if n, err := strconv.Atoi(group); err == nil {
				score := clampScore(n)
				p.Score = &score
				break
			}
		}
	}

	p.Feedback = text
	return p
}

// listItems converts section lines into one element per non-blank line,
// stripping leading bullet or enumeration markers.
func listItems(lines []string) []string {
	items := []string{}
	for _, line := range lines {
		trimmed := strings.TrimSpace(markupTrim.Replace(line))
		if trimmed == "" {
			continue
		}
		items = append(items, strings.TrimSpace(bulletPrefix.ReplaceAllString(trimmed, "")))
	}
	return items
}

func joinText(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func clampScore(n int) int {
	return max(min(n, 100), 0)
}
