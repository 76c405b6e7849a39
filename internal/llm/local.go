package llm

import (
	"context"
	"hash/fnv"
	"strings"
)

const localDimensions = 128

// LocalEmbedder is a deterministic, dependency-free embedder: token
// hashing into a fixed-dimension bag-of-words vector. It is the default
// provider, so ingestion and analysis work without any external service,
// and it keeps tests reproducible. Empty text embeds to the zero vector,
// which the index excludes from search.
type LocalEmbedder struct {
	Dimensions int
}

func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{Dimensions: localDimensions}
}

func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	dim := e.Dimensions
	if dim <= 0 {
		dim = localDimensions
	}
	vec := make([]float32, dim)

	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		// Sign from the high bit spreads tokens over both directions, so
		// unrelated texts don't all collapse into the positive orthant.
		slot := int(sum % uint32(dim))
		if sum&0x80000000 != 0 {
			vec[slot] -= 1
		} else {
			vec[slot] += 1
		}
	}
	return vec, nil
}
