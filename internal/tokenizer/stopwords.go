package tokenizer

// defaultStopwords unions the Russian and English function words the
// original spam filter excludes from tokenization (original_source's
// lib/spam/tokenizer.py _get_default_stopwords).
var defaultStopwords = map[string]struct{}{
	// Russian
	"и": {}, "в": {}, "не": {}, "на": {}, "я": {}, "что": {}, "с": {}, "а": {},
	"как": {}, "это": {}, "он": {}, "она": {}, "они": {}, "мы": {}, "вы": {}, "ты": {},
	"к": {}, "по": {}, "из": {}, "за": {}, "от": {}, "до": {}, "при": {}, "для": {},
	"или": {}, "но": {}, "да": {}, "нет": {}, "все": {}, "так": {}, "уже": {}, "еще": {},
	"там": {}, "тут": {}, "где": {}, "когда": {}, "если": {},

	// English
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"may": {}, "might": {}, "can": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
}

// DefaultStopwords returns a fresh copy of the default Russian+English
// stopword set so callers can't mutate the shared table.
func DefaultStopwords() map[string]struct{} {
	out := make(map[string]struct{}, len(defaultStopwords))
	for k := range defaultStopwords {
		out[k] = struct{}{}
	}
	return out
}
