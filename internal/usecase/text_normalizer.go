package usecase

import (
	"log"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TextNormalizer cleans ingredient text and splits it into ingredient tokens.
// It has no side effects apart from optional debug logging.
type TextNormalizer struct {
	enableDebugLogging bool
}

// NormalizeOptions selects optional cleanup steps
type NormalizeOptions struct {
	// StripPreamble removes phrases a reasoning model puts in front of the
	// text it read. Raw OCR output is never stripped.
	StripPreamble bool
}

// Normalized is the outcome of normalizing ingredient text
type Normalized struct {
	Text   string
	Tokens []string
}

// Compiled regex patterns for ingredient normalization
var (
	whitespacePattern    = regexp.MustCompile(`\s+`)
	labelPattern         = regexp.MustCompile(`(?i)^ingredients\s*:\s*`)
	percentagePattern    = regexp.MustCompile(`\d+(\.\d+)?%`)
	parentheticalPattern = regexp.MustCompile(`\([^)]*\)`)
	separatorPattern     = regexp.MustCompile(`[,;]`)

	preamblePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)the ingredients list says:`),
		regexp.MustCompile(`(?i)the text reads:`),
		regexp.MustCompile(`(?i)i can see the following ingredients:`),
		regexp.MustCompile(`(?i)the extracted text is:`),
	}
)

// NewTextNormalizer creates a new text normalizer
func NewTextNormalizer(enableDebugLogging bool) *TextNormalizer {
	return &TextNormalizer{
		enableDebugLogging: enableDebugLogging,
	}
}

// Normalize cleans text and tokenizes it into ingredients.
// Normalizing the returned Text yields the same result again.
func (n *TextNormalizer) Normalize(text string, opts NormalizeOptions) Normalized {
	cleaned := n.Clean(text, opts)
	tokens := n.Tokenize(cleaned, opts)

	if n.enableDebugLogging {
		log.Printf("[NORMALIZE] Input: %q → Text: %q Tokens: %q", text, cleaned, tokens)
	}

	return Normalized{Text: cleaned, Tokens: tokens}
}

// Clean collapses whitespace and strips the leading label and, when
// requested, reasoning preambles.
func (n *TextNormalizer) Clean(text string, opts NormalizeOptions) string {
	return untilStable(text, func(s string) string {
		s = collapseWhitespace(s)
		if opts.StripPreamble {
			s = stripPreambles(s)
			s = collapseWhitespace(s)
		}
		return labelPattern.ReplaceAllString(s, "")
	})
}

// Tokenize splits cleaned text into ingredient tokens. Parentheticals are
// dropped first so separators inside them do not split. Comma and semicolon
// separated lists are split directly; text that lost its punctuation is split
// at capitalized words.
func (n *TextNormalizer) Tokenize(text string, opts NormalizeOptions) []string {
	text = parentheticalPattern.ReplaceAllString(text, "")
	tokens := cleanTokens(separatorPattern.Split(text, -1), opts)
	if len(tokens) != 1 {
		return tokens
	}
	return cleanTokens(splitCapitalizedWords(tokens[0]), opts)
}

func cleanTokens(candidates []string, opts NormalizeOptions) []string {
	tokens := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		token := untilStable(candidate, func(s string) string {
			return cleanToken(s, opts)
		})
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func cleanToken(token string, opts NormalizeOptions) string {
	token = parentheticalPattern.ReplaceAllString(token, "")
	token = percentagePattern.ReplaceAllString(token, "")
	if opts.StripPreamble {
		token = stripPreambles(token)
	}
	token = collapseWhitespace(token)
	return labelPattern.ReplaceAllString(token, "")
}

// splitCapitalizedWords splits before every capitalized word (an upper-case
// letter followed by a lower-case one, preceded by whitespace).
func splitCapitalizedWords(s string) []string {
	var parts []string
	start := 0
	prev := rune(0)
	for i, r := range s {
		if i > start && unicode.IsSpace(prev) && unicode.IsUpper(r) {
			next, _ := utf8.DecodeRuneInString(s[i+utf8.RuneLen(r):])
			if unicode.IsLower(next) {
				parts = append(parts, s[start:i])
				start = i
			}
		}
		prev = r
	}
	return append(parts, s[start:])
}

func stripPreambles(s string) string {
	for _, p := range preamblePatterns {
		s = p.ReplaceAllString(s, "")
	}
	return s
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// untilStable applies fn until the value stops changing
func untilStable(s string, fn func(string) string) string {
	for {
		next := fn(s)
		if next == s {
			return s
		}
		s = next
	}
}
