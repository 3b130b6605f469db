package slip

import (
	"regexp"
	"strings"
)

// LineClass is the role a raw slip line plays in the page stream.
type LineClass int

const (
	LineBlank LineClass = iota
	LineEntryStart
	LineNoise
	LineContinuation
)

// MergedEntry is the full text of one line item, reassembled from its start
// line and any wrapped continuation lines. StartLine is the 1-based position
// of the start line in the input.
type MergedEntry struct {
	Text      string
	StartLine int
}

var (
	entryStartPattern = regexp.MustCompile(`^\d+\s+Magic-`)
	totalLinePattern  = regexp.MustCompile(`^\d+\s+Total\s+\$`)
)

// ClassifyLine tags a single trimmed line. Page headers, the order-number
// banner and the trailing total row are noise; anything else that does not
// open a new entry is a continuation candidate.
func ClassifyLine(line string) LineClass {
	if line == "" {
		return LineBlank
	}
	if strings.HasPrefix(line, "Quantity Description") || strings.HasPrefix(line, "OrderNumber:") || totalLinePattern.MatchString(line) {
		return LineNoise
	}
	if entryStartPattern.MatchString(line) {
		return LineEntryStart
	}
	return LineContinuation
}

// MergeContinuationLines folds wrapped lines back into their entry. The slip
// PDF splits long descriptions across lines without any marker, so every
// non-noise line between two entry starts belongs to the first one.
// Continuations are concatenated verbatim: the PDF already dropped the
// spacing, and the respacing pass runs later.
func MergeContinuationLines(lines []string) []MergedEntry {
	merged := make([]MergedEntry, 0, len(lines))
	open := false
	var current MergedEntry

	flush := func() {
		if open {
			merged = append(merged, current)
			open = false
		}
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		switch ClassifyLine(line) {
		case LineBlank:
			continue
		case LineNoise:
			flush()
		case LineEntryStart:
			flush()
			current = MergedEntry{Text: line, StartLine: i + 1}
			open = true
		case LineContinuation:
			if open {
				current.Text += line
			}
			// Lines before the first entry are page preamble, dropped.
		}
	}
	flush()

	return merged
}
