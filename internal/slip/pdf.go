package slip

import (
	"bytes"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

var orderNumberPattern = regexp.MustCompile(`Order\s*Number:\s*([A-Z0-9-]+)`)

// ExtractPDFLines pulls the plain text of every page and returns it as
// trimmed lines in page order. Pages that fail to render are skipped; the
// merger tolerates the resulting gaps.
func ExtractPDFLines(content []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	var lines []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.ReplaceAll(text, "\r\n", "\n")
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

// ExtractOrderNumber finds the order banner anywhere in the document text.
func ExtractOrderNumber(lines []string) string {
	for _, line := range lines {
		if m := orderNumberPattern.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// ParsePDF is the whole-document entry point: extract text, parse lines, and
// report the order number alongside the outcome.
func (p *Parser) ParsePDF(content []byte) (ParseOutcome, string, error) {
	lines, err := ExtractPDFLines(content)
	if err != nil {
		return ParseOutcome{}, "", err
	}
	return p.ParseLines(lines), ExtractOrderNumber(lines), nil
}
