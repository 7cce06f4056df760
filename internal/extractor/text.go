package extractor

import "strings"

// CleanLines splits raw text extracted from a document node into a list of
// non-empty, whitespace-trimmed lines.
func CleanLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// JoinLines concatenates cleaned lines into a single string with ". "
// separators.
func JoinLines(lines []string) string {
	return strings.Join(lines, ". ")
}

// optionalField normalizes a detail group into a single nullable string.
// The first line is the group label and is dropped; a group with no value
// lines resolves to nil rather than failing the extraction.
func optionalField(lines []string) *string {
	if len(lines) < 2 {
		return nil
	}
	value := JoinLines(lines[1:])
	return &value
}

// multiField normalizes a detail group into a value sequence, dropping the
// label line. An absent group yields an empty sequence.
func multiField(lines []string) []string {
	if len(lines) < 2 {
		return []string{}
	}
	return lines[1:]
}
