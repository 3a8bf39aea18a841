package insight

import (
	"maps"
	"regexp"
	"slices"
	"strings"
)

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================
// Rule texts are templates with {snake_case} placeholders. Values come from
// one placeholder set built per report. A placeholder with no value is
// stripped from the template first, then every known placeholder is
// substituted in a single pass: substituted values are never scanned again,
// even when an operation name itself looks like a placeholder.
// ============================================================================

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

type placeholders struct {
	values   map[string]string
	replacer *strings.Replacer
}

// newPlaceholders builds the replacer with the tokens in sorted order.
func newPlaceholders(values map[string]string) *placeholders {
	tokens := slices.Sorted(maps.Keys(values))
	pairs := make([]string, 0, 2*len(tokens))
	for _, tok := range tokens {
		pairs = append(pairs, tok, values[tok])
	}
	return &placeholders{values: values, replacer: strings.NewReplacer(pairs...)}
}

// resolve substitutes values into a template.
func (p *placeholders) resolve(template string) string {
	return p.replacer.Replace(p.stripUnresolved(template))
}

func (p *placeholders) stripUnresolved(text string) string {
	stripped := false
	cleaned := placeholderRegex.ReplaceAllStringFunc(text, func(tok string) string {
		if _, ok := p.values[tok]; ok {
			return tok
		}
		stripped = true
		return ""
	})
	if !stripped {
		return text
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.TrimRight(cleaned, " :.—-–")
	if cleaned == "" {
		return text
	}
	return cleaned
}
