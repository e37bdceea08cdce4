package openaicompat

import (
	"fmt"
	"strings"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

const systemPrompt = `You are a data type analyst. Given column samples from a tabular file ` +
	`and a deterministic first-pass classification, reply with a single JSON object:
{
  "columns": [{"name": "...", "suggested_type": "boolean|integer|numeric|datetime|email|text", "confidence": 0-100}],
  "aggregate_confidence": 0-100,
  "improvements": ["..."],
  "recommendations": ["..."]
}
Only suggest a type when the samples justify more confidence than the first pass. Reply with JSON only.`

func buildAdvicePrompt(req domain.AdviceRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\nColumns (%d):\n", req.Filename, len(req.Columns))
	for _, col := range req.Columns {
		fmt.Fprintf(&b, "- %q first-pass=%s match_ratio=%.2f samples=[%s]\n",
			col.Name, col.DetectedType, col.MatchRatio, strings.Join(quoteAll(col.Samples), ", "))
	}
	b.WriteString("\nClassify every column.")
	return b.String()
}

func quoteAll(samples []string) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		if len(s) > 80 {
			s = s[:80]
		}
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
