package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

var (
	ErrEmptyCatalog = errors.New("empty-catalog")
	ErrInvalidItem  = errors.New("invalid-quiz-item")
)

// Item is one quiz entry. Word is treated as a sequence of glyphs (runes).
type Item struct {
	Word    string `yaml:"word" json:"word"`
	Meaning string `yaml:"meaning" json:"meaning"`
}

// Rand is the random source used for sampling. *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// Source supplies catalog items from an external store.
type Source interface {
	LoadQuizItems(ctx context.Context) ([]Item, error)
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	items []Item
}

func New(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	copied := make([]Item, 0, len(items))
	for i, item := range items {
		item.Word = strings.TrimSpace(item.Word)
		if item.Word == "" || !utf8.ValidString(item.Word) {
			return nil, fmt.Errorf("%w: item %d", ErrInvalidItem, i)
		}
		copied = append(copied, item)
	}
	return &Catalog{items: copied}, nil
}

// LoadYAML parses a document of the form `items: [{word, meaning}]`.
func LoadYAML(data []byte) (*Catalog, error) {
	var doc struct {
		Items []Item `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}
	return New(doc.Items)
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := LoadYAML(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Load asks the source for items and falls back to the embedded catalog
// when the source is nil or holds nothing.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		return Default(), nil
	}
	items, err := src.LoadQuizItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return Default(), nil
	}
	return New(items)
}

func (c *Catalog) Len() int {
	return len(c.items)
}

func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Sample draws n items. Items never repeat within one pass over the catalog;
// when n exceeds the catalog size a fresh permutation is started, and the first
// item of the new pass differs from the last item of the previous one.
func (c *Catalog) Sample(n int, rng Rand) []Item {
	if n <= 0 {
		return nil
	}
	out := make([]Item, 0, n)
	var last = -1
	for len(out) < n {
		perm := c.permutation(rng)
		if last >= 0 && len(perm) > 1 && perm[0] == last {
			swap := 1 + rng.IntN(len(perm)-1)
			perm[0], perm[swap] = perm[swap], perm[0]
		}
		for _, idx := range perm {
			if len(out) == n {
				break
			}
			out = append(out, c.items[idx])
			last = idx
		}
	}
	return out
}

func (c *Catalog) permutation(rng Rand) []int {
	perm := make([]int, len(c.items))
	for i := range perm {
		perm[i] = i
	}
	for i := len(perm) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
