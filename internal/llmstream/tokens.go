package llmstream

import "github.com/tiktoken-go/tokenizer"

// CountTokens returns the number of o200k_base tokens in text. It's used to estimate output usage for providers that don't report it. If the encoder is unavailable,
// it falls back to len(text)/4.
func CountTokens(text string) int {
	enc, err := tokenizer.Get(tokenizer.O200kBase)
	if err != nil {
		return len(text) / 4
	}
	count, err := enc.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}
