package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"referral-backend/internal/domain"
)

// ExtractJSON strips a surrounding markdown code fence. Anything else in the
// response is left for the decoder to reject.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeJSON parses a model response into v. Failures wrap domain.ErrAnalysisParse.
func DecodeJSON(text string, v any) error {
	if err := json.Unmarshal([]byte(ExtractJSON(text)), v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAnalysisParse, err)
	}
	return nil
}
