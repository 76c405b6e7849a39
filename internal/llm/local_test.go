package llm

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedder_Deterministic(t *testing.T) {
	e := NewLocalEmbedder()

	a, err := e.Embed(context.Background(), "class OrderService depends on PaymentClient")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "class OrderService depends on PaymentClient")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, localDimensions)
}

func TestLocalEmbedder_DifferentTextsDiffer(t *testing.T) {
	e := NewLocalEmbedder()

	a, err := e.Embed(context.Background(), "class OrderService")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "class InventoryWorker processes queue events")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestLocalEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	e := NewLocalEmbedder()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestLocalEmbedder_SharedTokensIncreaseSimilarity(t *testing.T) {
	e := NewLocalEmbedder()

	a, _ := e.Embed(context.Background(), "class OrderService extends BaseService")
	b, _ := e.Embed(context.Background(), "class OrderServiceTest extends BaseService")
	c, _ := e.Embed(context.Background(), "util func parse csv rows")

	assert.Greater(t, cosine(a, b), cosine(a, c))
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
