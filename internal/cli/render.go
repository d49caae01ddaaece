package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/securo/internal/model"
)

// renderItem prints one analysis result
func renderItem(w io.Writer, item model.HistoryItem, asJSON bool) error {
	if asJSON {
		return writeJSON(w, item)
	}

	printf := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	printf("Threat level:  %s\n", item.Report.ThreatLevel)
	printf("Credibility:   %d/100\n", item.Report.CredibilityScore)
	printf("Input:         %s (%s)\n", preview(item.UserInput, 80), item.InputType)
	printf("ID:            %s\n\n", item.ID)
	printf("%s\n\n", item.Report.AnalysisSummary)
	printf("%s\n", item.Report.DetailedExplanation)

	if len(item.Report.EducationalTips) > 0 {
		printf("\nTips:\n")
		for _, tip := range item.Report.EducationalTips {
			printf("  - %s\n", tip)
		}
	}
	return nil
}

// renderHistory prints the history list, newest first
func renderHistory(w io.Writer, items []model.HistoryItem, asJSON bool) error {
	if asJSON {
		if items == nil {
			items = []model.HistoryItem{}
		}
		return writeJSON(w, items)
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No history yet.")
		return err
	}

	for _, item := range items {
		if _, err := fmt.Fprintf(w, "%s  %-12s %3d/100  %-15s %s\n",
			item.ID, item.Report.ThreatLevel, item.Report.CredibilityScore, item.InputType, preview(item.UserInput, 50)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// preview shortens input to one line of at most n runes. Data URIs show only their header.
func preview(input string, n int) string {
	if strings.HasPrefix(input, "data:") {
		if comma := strings.IndexByte(input, ','); comma >= 0 {
			return input[:comma] + ",..."
		}
	}

	line := strings.Join(strings.Fields(input), " ")
	runes := []rune(line)
	if len(runes) <= n {
		return line
	}
	return string(runes[:n-3]) + "..."
}
