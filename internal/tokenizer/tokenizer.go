// Package tokenizer turns raw message text into the token stream consumed
// by the Bayes classifier (C4), and exposes the raw-text spam indicators
// the decision engine (C7) folds into its heuristic score.
package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
)

// Config controls every stage of Tokenize. DefaultConfig mirrors the
// defaults of original_source's TokenizerConfig.
type Config struct {
	MinLen, MaxLen                                          int
	Lowercase                                               bool
	RemoveURLs, RemoveMentions, RemoveNumbers, RemoveEmoji   bool
	NormalizeWhitespace                                      bool
	UseBigrams, UseTrigrams                                  bool
	PreservePunctuation                                      bool
	Stopwords                                                map[string]struct{}
}

// DefaultConfig returns the specification's default tokenizer
// configuration: min/max length 2/50 inclusive on both ends (§9 Open
// Question resolution), bigrams on, trigrams off.
func DefaultConfig() Config {
	return Config{
		MinLen:              2,
		MaxLen:              50,
		Lowercase:           true,
		RemoveURLs:          true,
		RemoveMentions:      true,
		RemoveNumbers:       false,
		RemoveEmoji:         false,
		NormalizeWhitespace: true,
		UseBigrams:          true,
		UseTrigrams:         false,
		PreservePunctuation: false,
		Stopwords:           DefaultStopwords(),
	}
}

var (
	urlPattern        = regexp.MustCompile(`https?://\S+|www\.\S+|t\.me/\S+`)
	mentionPattern    = regexp.MustCompile(`@\w+`)
	numberPattern     = regexp.MustCompile(`\d+`)
	wordPattern       = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// isEmojiRune reports whether r falls in one of the emoji-ish ranges the
// original tokenizer strips (emoticons, symbols & pictographs, transport
// symbols, flags, dingbats, enclosed characters).
func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F600 && r <= 0x1F64F:
		return true
	case r >= 0x1F300 && r <= 0x1F5FF:
		return true
	case r >= 0x1F680 && r <= 0x1F6FF:
		return true
	case r >= 0x1F1E0 && r <= 0x1F1FF:
		return true
	case r >= 0x2702 && r <= 0x27B0:
		return true
	case r >= 0x24C2 && r <= 0x1F251:
		return true
	}
	return false
}

func stripEmoji(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !isEmojiRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize converts text into a token sequence per §4.3: strip, normalize,
// extract, filter, then emit n-grams. It is pure and deterministic.
func Tokenize(text string, cfg Config) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	processed := preprocess(text, cfg)
	words := extractWords(processed, cfg)
	filtered := filterWords(words, cfg)
	return generateNgrams(filtered, cfg)
}

func preprocess(text string, cfg Config) string {
	processed := text

	if cfg.RemoveURLs {
		processed = urlPattern.ReplaceAllString(processed, "")
	}
	if cfg.RemoveMentions {
		processed = mentionPattern.ReplaceAllString(processed, "")
	}
	if cfg.RemoveNumbers {
		processed = numberPattern.ReplaceAllString(processed, "")
	}
	if cfg.RemoveEmoji {
		processed = stripEmoji(processed)
	}
	if cfg.NormalizeWhitespace {
		processed = whitespacePattern.ReplaceAllString(processed, " ")
	}
	if cfg.Lowercase {
		processed = strings.ToLower(processed)
	}

	return strings.TrimSpace(processed)
}

func extractWords(text string, cfg Config) []string {
	if cfg.PreservePunctuation {
		return strings.Fields(text)
	}
	return wordPattern.FindAllString(text, -1)
}

func filterWords(words []string, cfg Config) []string {
	filtered := make([]string, 0, len(words))
	for _, w := range words {
		length := len([]rune(w))
		if length < cfg.MinLen || length > cfg.MaxLen {
			continue
		}
		if _, stop := cfg.Stopwords[strings.ToLower(w)]; stop {
			continue
		}
		filtered = append(filtered, w)
	}
	return filtered
}

func generateNgrams(words []string, cfg Config) []string {
	tokens := make([]string, len(words))
	copy(tokens, words)

	if cfg.UseBigrams && len(words) > 1 {
		for i := 0; i < len(words)-1; i++ {
			tokens = append(tokens, words[i]+"_"+words[i+1])
		}
	}
	if cfg.UseTrigrams && len(words) > 2 {
		for i := 0; i < len(words)-2; i++ {
			tokens = append(tokens, words[i]+"_"+words[i+1]+"_"+words[i+2])
		}
	}
	return tokens
}

// Indicators summarizes raw-text spam signals used by the decision engine
// independent of tokenizer configuration.
type Indicators struct {
	URLCount         int
	MentionCount     int
	NumberCount      int
	EmojiCount       int
	CapsRatio        float64
	ExclamationCount int
	QuestionCount    int
	Length           int
	WordCount        int
}

// SpamIndicators computes raw-text statistics from text, independent of any
// Config: these feed the per-entity / caps-ratio heuristics in C7.
func SpamIndicators(text string) Indicators {
	emojiCount := 0
	for _, r := range text {
		if isEmojiRune(r) {
			emojiCount++
		}
	}

	return Indicators{
		URLCount:         len(urlPattern.FindAllString(text, -1)),
		MentionCount:     len(mentionPattern.FindAllString(text, -1)),
		NumberCount:      len(numberPattern.FindAllString(text, -1)),
		EmojiCount:       emojiCount,
		CapsRatio:        capsRatio(text),
		ExclamationCount: strings.Count(text, "!"),
		QuestionCount:    strings.Count(text, "?"),
		Length:           len([]rune(text)),
		WordCount:        len(strings.Fields(text)),
	}
}

func capsRatio(text string) float64 {
	letters, caps := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				caps++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(caps) / float64(letters)
}
