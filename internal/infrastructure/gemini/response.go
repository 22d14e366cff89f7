package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nutriscan/backend/internal/domain"
)

// ExtractJSONObject parses the JSON object embedded in a model response.
// The object spans from the first '{' to the last '}' so commentary before
// or after it is ignored. Anything else is reported as ErrAnalysisParse.
func ExtractJSONObject(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", domain.ErrAnalysisParse)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisParse, err)
	}
	return doc, nil
}
