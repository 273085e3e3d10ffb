package chunker

import "strings"

// tokensPerWord approximates tokenizer output for English text.
const tokensPerWord = 1.33

// EstimateTokens gives a rough token count from the word count. Exact
// tokenization is not required for chunking.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	tokens := int(float64(words) * tokensPerWord)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
