package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err   error
	short bool
	docs  []string
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, texts...)
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, []float32{float32(len(t)), 1})
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func TestModel_EmbedBatch(t *testing.T) {
	fake := &fakeEmbedder{}
	m := NewModel(fake, "text-embedding-3-small", 2)

	vecs, err := m.EmbedBatch(context.Background(), []string{"passage: a\nb", "xy"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{11, 1}, {2, 1}}, vecs)
	assert.Equal(t, []string{"passage: a\nb", "xy"}, fake.docs)
	assert.Equal(t, "text-embedding-3-small", m.ModelName())
	assert.Equal(t, 2, m.Dimensions())
	assert.NoError(t, m.Close())
}

func TestModel_EmbedBatch_Empty(t *testing.T) {
	fake := &fakeEmbedder{}
	vecs, err := NewModel(fake, "m", 2).EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Empty(t, fake.docs)
}

func TestModel_EmbedBatch_Errors(t *testing.T) {
	_, err := NewModel(&fakeEmbedder{err: errors.New("quota")}, "m", 2).EmbedBatch(context.Background(), []string{"a"})
	assert.EqualError(t, err, "quota")

	_, err = NewModel(&fakeEmbedder{short: true}, "m", 2).EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestModel_Probe(t *testing.T) {
	m := NewModel(&fakeEmbedder{}, "m", 0)
	require.NoError(t, m.probe(context.Background()))
	assert.Equal(t, 3, m.Dimensions())

	m = NewModel(&fakeEmbedder{err: errors.New("401")}, "m", 0)
	assert.Error(t, m.probe(context.Background()))
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAI(Config{Model: "text-embedding-3-small"})
	assert.Error(t, err)
}
