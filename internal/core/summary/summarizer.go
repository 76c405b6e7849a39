package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/impactwise/ripple/internal/core/common"
	"github.com/impactwise/ripple/internal/core/model"
	"github.com/impactwise/ripple/internal/llm"
)

const maxListedClasses = 15

const promptTemplate = `You are reviewing an automated change-impact analysis for merge request %s.
Severity score: %.1f/10. Affected classes (severity, hop distance):
%s
Write a concise one-paragraph summary for a reviewer. Respond as JSON: {"summary": "..."}`

// Summarizer turns an impact report into a human-readable summary via the
// configured chat model. It is an optional strategy; the analyzer falls
// back to its deterministic summary when generation fails.
type Summarizer struct {
	LLM llm.LLMClient
}

func NewSummarizer(llmClient llm.LLMClient) *Summarizer {
	return &Summarizer{LLM: llmClient}
}

type reportSummary struct {
	Summary string `json:"summary"`
}

func (s *Summarizer) Summarize(ctx context.Context, report *model.ImpactReport) (string, error) {
	if s.LLM == nil {
		return "", fmt.Errorf("no llm client configured")
	}

	var b strings.Builder
	for i, ac := range report.AffectedClasses {
		if i >= maxListedClasses {
			fmt.Fprintf(&b, "- ... and %d more\n", len(report.AffectedClasses)-i)
			break
		}
		fmt.Fprintf(&b, "- %s (%s, distance %d): %s\n", ac.NodeID, ac.Severity, ac.Distance, ac.Reason)
	}

	prompt := fmt.Sprintf(promptTemplate, report.MRID, report.SeverityScore, b.String())
	response, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	result, err := common.ParseJSON[reportSummary](response)
	if err == nil && strings.TrimSpace(result.Summary) != "" {
		return strings.TrimSpace(result.Summary), nil
	}
	// Some models reply in plain prose despite the instruction.
	if trimmed := strings.TrimSpace(response); trimmed != "" {
		return trimmed, nil
	}
	return "", fmt.Errorf("empty summary response")
}
