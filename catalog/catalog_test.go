package catalog

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	items []Item
	err   error
}

func (s stubSource) LoadQuizItems(ctx context.Context) ([]Item, error) {
	return s.items, s.err
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = New([]Item{{Word: "  ", Meaning: "blank"}})
	assert.ErrorIs(t, err, ErrInvalidItem)

	c, err := New([]Item{{Word: " 以心伝心 ", Meaning: "m"}})
	require.NoError(t, err)
	assert.Equal(t, "以心伝心", c.Items()[0].Word)
}

func TestDefault(t *testing.T) {
	t.Parallel()
	c := Default()
	assert.GreaterOrEqual(t, c.Len(), 4)
	assert.Contains(t, c.Items(), Item{Word: "以心伝心", Meaning: "言葉にせずとも心で通じ合うこと"})
}

func TestLoad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("nil source uses default", func(t *testing.T) {
		c, err := Load(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, Default().Len(), c.Len())
	})

	t.Run("empty source uses default", func(t *testing.T) {
		c, err := Load(ctx, stubSource{})
		require.NoError(t, err)
		assert.Equal(t, Default().Len(), c.Len())
	})

	t.Run("source items", func(t *testing.T) {
		c, err := Load(ctx, stubSource{items: []Item{{Word: "一石二鳥"}}})
		require.NoError(t, err)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("source error", func(t *testing.T) {
		_, err := Load(ctx, stubSource{err: assert.AnError})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestSample(t *testing.T) {
	t.Parallel()
	c, err := New([]Item{{Word: "一"}, {Word: "二"}, {Word: "三"}, {Word: "四"}})
	require.NoError(t, err)

	for seed := uint64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7))

		within := c.Sample(4, rng)
		seen := map[string]bool{}
		for _, item := range within {
			assert.False(t, seen[item.Word], "repeated %s within one pass", item.Word)
			seen[item.Word] = true
		}

		long := c.Sample(11, rng)
		require.Len(t, long, 11)
		for i := 1; i < len(long); i++ {
			assert.NotEqual(t, long[i-1].Word, long[i].Word, "seed %d index %d", seed, i)
		}
	}

	assert.Nil(t, c.Sample(0, rand.New(rand.NewPCG(1, 2))))
}
