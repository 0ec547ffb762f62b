package generation

import (
	"regexp"
	"strings"
)

// Extractor pulls a JSON object out of free-form model output.
type Extractor func(text string) (string, error)

var (
	jsonFence  = regexp.MustCompile("```json\n?")
	plainFence = regexp.MustCompile("```\n?")
)

// ExtractJSON strips markdown code fences and returns the span from the first
// '{' to the last '}' inclusive. It does not parse the result.
func ExtractJSON(text string) (string, error) {
	cleaned := jsonFence.ReplaceAllString(text, "")
	cleaned = plainFence.ReplaceAllString(cleaned, "")

	first := strings.IndexByte(cleaned, '{')
	last := strings.LastIndexByte(cleaned, '}')
	if first < 0 || last < first {
		return "", ErrNoJSONFound
	}
	return cleaned[first : last+1], nil
}
