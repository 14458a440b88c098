package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-search-api/internal/workflow/chain"
)

func newTestDecomposer(m *fakeChatModel) *Decomposer {
	return NewDecomposer(chain.NewDecomposeChain(fakeFactory{m}), "test")
}

func TestIsComplex(t *testing.T) {
	d := newTestDecomposer(&fakeChatModel{})

	tests := []struct {
		query string
		want  bool
	}{
		{"Compare React and Vue", true},
		{"Python vs Rust for backend", true},
		{"What is the difference between TCP and UDP", true},
		{"How does garbage collection work", true},
		{"pros and cons of microservices", true},
		{"What is Go?", false},
		{"golang slice capacity", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, d.IsComplex(tt.query))
		})
	}
}

func TestDecomposeParsesLines(t *testing.T) {
	d := newTestDecomposer(&fakeChatModel{
		reply: "What are the key features of React?\nWhat are the key features of Vue?\nReact vs Vue performance comparison",
	})

	got := d.Decompose(context.Background(), "Compare React and Vue")

	assert.Equal(t, []string{
		"What are the key features of React?",
		"What are the key features of Vue?",
		"React vs Vue performance comparison",
	}, got)
}

func TestDecomposeCapsAtFour(t *testing.T) {
	d := newTestDecomposer(&fakeChatModel{
		reply: "sub-query one\nsub-query two\nsub-query three\nsub-query four\nsub-query five",
	})

	got := d.Decompose(context.Background(), "some complex query")

	assert.Len(t, got, 4)
}

func TestDecomposeFiltersNoiseLines(t *testing.T) {
	d := newTestDecomposer(&fakeChatModel{
		reply: "\n1.\nWhat powers the sun?\n  \nok\n",
	})

	got := d.Decompose(context.Background(), "how does the sun work and why")

	assert.Equal(t, []string{"What powers the sun?"}, got)
}

func TestDecomposeFailureFallsBackToOriginal(t *testing.T) {
	d := newTestDecomposer(&fakeChatModel{err: errors.New("provider down")})

	got := d.Decompose(context.Background(), "compare A and B")

	assert.Equal(t, []string{"compare A and B"}, got)
}

func TestDecomposeEmptyOutputFallsBackToOriginal(t *testing.T) {
	d := newTestDecomposer(&fakeChatModel{reply: "\n\n"})

	got := d.Decompose(context.Background(), "compare A and B")

	assert.Equal(t, []string{"compare A and B"}, got)
}
