package quizdoc

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	// fenceMarker matches Markdown code-fence delimiters, optionally tagged json.
	fenceMarker = regexp.MustCompile("```(?i:json)?")

	// objectCandidate matches a brace-delimited object containing no nested
	// braces or exactly one level of them. Question records nest their
	// answer objects one level deep and never further, so deeper wrappers
	// are skipped and their inner question objects are matched instead.
	objectCandidate = regexp.MustCompile(`\{(?:[^{}]|\{[^{}]*\})*\}`)
)

// normalizeResponse recovers question records from text that is supposed
// to hold a JSON array, trying progressively looser strategies and
// stopping at the first one that yields a question-shaped record.
// Failures inside a strategy only move on to the next one.
func normalizeResponse(raw string) ([]any, Strategy, bool) {
	if records, ok := decodeRecords(raw); ok {
		return records, StrategyDirect, true
	}

	if fenceMarker.MatchString(raw) {
		stripped := strings.TrimSpace(fenceMarker.ReplaceAllString(raw, ""))
		if records, ok := decodeRecords(stripped); ok {
			return records, StrategyFenced, true
		}
	}

	if records, ok := extractArray(raw); ok {
		return records, StrategyArrayRepair, true
	}

	if records, ok := scanObjects(raw); ok {
		return records, StrategyObjectScan, true
	}

	return nil, "", false
}

// decodeRecords parses s as JSON and returns its question records.
func decodeRecords(s string) ([]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	records := recordsOf(v)
	return records, hasCandidate(records)
}

// recordsOf accepts a bare array, an object wrapping a "questions" array,
// or a single question object.
func recordsOf(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		if qs, ok := t["questions"].([]any); ok {
			return qs
		}
		if _, ok := t["question_text"]; ok {
			return []any{t}
		}
	}
	return nil
}

// extractArray slices from the first '[' to the last ']' and parses the
// repaired slice.
func extractArray(raw string) ([]any, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, false
	}

	var v any
	if err := json.Unmarshal([]byte(repairJSON(raw[start:end+1])), &v); err != nil {
		return nil, false
	}
	records, ok := v.([]any)
	if !ok {
		return nil, false
	}
	return records, hasCandidate(records)
}

// scanObjects parses every object candidate independently and keeps only
// question-shaped ones. A malformed candidate is skipped without failing
// the batch.
func scanObjects(raw string) ([]any, bool) {
	var records []any
	for _, m := range objectCandidate.FindAllString(raw, -1) {
		var v any
		if err := json.Unmarshal([]byte(repairJSON(m)), &v); err != nil {
			continue
		}
		if !isCandidate(v) {
			continue
		}
		records = append(records, v)
	}
	return records, len(records) > 0
}

func hasCandidate(records []any) bool {
	for _, r := range records {
		if isCandidate(r) {
			return true
		}
	}
	return false
}
