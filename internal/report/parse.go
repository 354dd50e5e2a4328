package report

import (
	"strings"
)

// Placeholders for sections the model left out.
const (
	PercentsFallback  = "N/A"
	ReasoningFallback = "Detailed reasoning is not available for this match."
)

// Sections is a parsed model answer.
type Sections struct {
	Percents  string
	Insight   string
	Reasoning string
}

// Parse splits a "### KEYWORD" structured answer. It never fails: missing
// sections get the placeholders and a missing insight becomes the whole text.
func Parse(text string) Sections {
	clean := strings.TrimSpace(strings.ReplaceAll(text, "**", ""))
	out := Sections{Percents: PercentsFallback, Reasoning: ReasoningFallback}

	found := map[string]string{}
	chunks := strings.Split(clean, "###")
	for _, chunk := range chunks[1:] {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		keyword, body, _ := strings.Cut(chunk, "\n")
		fields := strings.Fields(keyword)
		if len(fields) == 0 {
			continue
		}
		key := strings.ToUpper(strings.TrimRight(fields[0], ":"))
		// "### PERCENTS: 50% - 20% - 30%" keeps the rest of the heading line.
		inline := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(keyword), fields[0]))
		body = strings.TrimSpace(inline + "\n" + body)
		if _, seen := found[key]; !seen && body != "" {
			found[key] = body
		}
	}

	if v, ok := found["PERCENTS"]; ok {
		out.Percents = v
	}
	if v, ok := found["REASONING"]; ok {
		out.Reasoning = v
	}
	if v, ok := found["INSIGHT"]; ok {
		out.Insight = v
	} else {
		out.Insight = clean
	}
	return out
}
