// =============================================================================
// Tariff Import Pipeline - Report Rendering
// =============================================================================
//
// Renders the four derived reports as plain text, both for terminal display
// and for the per-run report files written next to the import. Rendering is
// separate from generation so tests can assert on report content without
// touching the filesystem.
//
// =============================================================================

package reports

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/solardesk/tariff-import/pkg/utils"
)

// RenderSummary formats the headline report.
func RenderSummary(r *ImportReports) string {
	var b strings.Builder
	s := r.Summary

	writeHeader(&b, "IMPORT SUMMARY")
	fmt.Fprintf(&b, "Source file:      %s\n", s.SourceFile)
	fmt.Fprintf(&b, "Schema:           %s\n", s.Schema)
	fmt.Fprintf(&b, "Rows:             %d total, %d valid, %d invalid, %d with warnings\n",
		s.TotalRows, s.ValidRows, s.InvalidRows, s.WarningRows)
	fmt.Fprintf(&b, "Discarded rows:   %d (footer/annotation)\n", s.DiscardedRows)
	fmt.Fprintf(&b, "Parsed records:   %d\n", s.ParsedRecords)
	fmt.Fprintf(&b, "Tariff payloads:  %d\n", s.Payloads)
	fmt.Fprintf(&b, "Agents:           %d distinct, %d matched (%d%% mapping rate)\n",
		s.DistinctAgents, s.MatchedAgents, s.MappingRate)
	return b.String()
}

// RenderUnmatched formats the unmatched-agents report. Returns an empty
// string when every agent resolved cleanly.
func RenderUnmatched(r *ImportReports) string {
	if len(r.Unmatched) == 0 {
		return ""
	}

	var b strings.Builder
	writeHeader(&b, "AGENTS NEEDING ATTENTION")
	for _, e := range r.Unmatched {
		fmt.Fprintf(&b, "  %-40s %s\n", e.Agent, e.Reason)
		if e.Confidence > 0 {
			fmt.Fprintf(&b, "  %-40s   confidence: %.2f\n", "", e.Confidence)
		}
		fmt.Fprintf(&b, "  %-40s   -> %s\n", "", e.Recommendation)
	}
	return b.String()
}

// RenderColumnQuality formats the column-quality report. Returns an empty
// string when no column falls below the fill-rate threshold.
func RenderColumnQuality(r *ImportReports) string {
	if len(r.Columns) == 0 {
		return ""
	}

	var b strings.Builder
	writeHeader(&b, "COLUMN QUALITY")
	for _, c := range r.Columns {
		if !c.Found {
			fmt.Fprintf(&b, "  %-20s not found in header row\n", c.Field)
			continue
		}
		fmt.Fprintf(&b, "  %-20s fill rate %.1f%%", c.Field, c.FillRate)
		if len(c.ExampleRows) > 0 {
			fmt.Fprintf(&b, "  (example lines: %s)", joinInts(c.ExampleRows))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderValueSanity formats the value-sanity report. Returns an empty string
// when nothing looks suspicious.
func RenderValueSanity(r *ImportReports) string {
	v := r.ValueSanity
	if v.BothPrimaryZero == 0 && v.LikelyMWhForgotten == 0 && v.EmptyRequired == 0 {
		return ""
	}

	var b strings.Builder
	writeHeader(&b, "VALUE SANITY")
	if v.BothPrimaryZero > 0 {
		fmt.Fprintf(&b, "  %d row(s) with zero for both primary tariff values (lines: %s)\n",
			v.BothPrimaryZero, joinInts(v.BothPrimaryZeroRows))
	}
	if v.LikelyMWhForgotten > 0 {
		fmt.Fprintf(&b, "  %d row(s) with values above 1 outside a MWh unit, possible missed conversion (lines: %s)\n",
			v.LikelyMWhForgotten, joinInts(v.LikelyMWhForgottenRows))
	}
	if v.EmptyRequired > 0 {
		fmt.Fprintf(&b, "  %d row(s) with an empty agent or subgroup (lines: %s)\n",
			v.EmptyRequired, joinInts(v.EmptyRequiredRows))
	}
	return b.String()
}

// Render concatenates every non-empty report section.
func Render(r *ImportReports) string {
	var parts []string
	for _, s := range []string{
		RenderSummary(r),
		RenderUnmatched(r),
		RenderColumnQuality(r),
		RenderValueSanity(r),
	} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// WriteFiles writes one text file per non-empty report section into dir,
// named after the source file with a timestamp. Returns the written paths.
func WriteFiles(r *ImportReports, dir string) ([]string, error) {
	sections := []struct {
		base    string
		content string
	}{
		{"summary", RenderSummary(r)},
		{"unmatched", RenderUnmatched(r)},
		{"columns", RenderColumnQuality(r)},
		{"sanity", RenderValueSanity(r)},
	}

	var written []string
	for _, s := range sections {
		if s.content == "" {
			continue
		}
		path := filepath.Join(dir, utils.TimestampedName(s.base, r.Summary.SourceFile, "txt"))
		if err := utils.WriteTextFile(path, s.content); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeHeader(b *strings.Builder, title string) {
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
}

func joinInts(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprintf("%d", r)
	}
	return strings.Join(parts, ", ")
}
