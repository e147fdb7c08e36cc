package llm

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates the token count of text for a model.
type TokenCounter func(model, text string) int

var encoderCache sync.Map // model -> *tiktoken.Tiktoken (nil when unavailable)

// EstimateTokens counts tokens with the model's encoding, falling back to
// cl100k_base and then to a four-characters-per-token heuristic.
func EstimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	if encoder := encodingForModel(model); encoder != nil {
		return len(encoder.Encode(text, nil, nil))
	}
	return ApproximateTokens(model, text)
}

// ApproximateTokens is the heuristic used when no encoding can be loaded.
func ApproximateTokens(_ string, text string) int {
	runes := utf8.RuneCountInString(text)
	if runes == 0 {
		return 0
	}
	return (runes + 3) / 4
}

func encodingForModel(model string) *tiktoken.Tiktoken {
	if cached, ok := encoderCache.Load(model); ok {
		encoder, _ := cached.(*tiktoken.Tiktoken)
		return encoder
	}

	encoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoder, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			encoder = nil
		}
	}
	encoderCache.Store(model, encoder)
	return encoder
}
