package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/truongnet3103/albion-GE/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	mu      sync.Mutex
	answers map[string]string // by image filename, "" for text
	err     error
	keys    []string
	prompts []Prompt
}

func (f *fakeModel) Generate(ctx context.Context, apiKey string, p Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, apiKey)
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return "", f.err
	}
	if p.Image != nil {
		return f.answers[p.Image.Filename], nil
	}
	return f.answers[""], nil
}

type fakeKeys struct {
	key string
	err error
}

func (f fakeKeys) SharedAPIKey(context.Context) (string, error) { return f.key, f.err }

func TestResolveKeyOrder(t *testing.T) {
	ctx := context.Background()

	s := NewExtractService(&fakeModel{}, fakeKeys{key: "shared"}, "config", 1, 0)
	k, err := s.ResolveKey(ctx, " session ")
	require.NoError(t, err)
	assert.Equal(t, "session", k)

	k, err = s.ResolveKey(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "shared", k)

	s = NewExtractService(&fakeModel{}, fakeKeys{}, "config", 1, 0)
	k, err = s.ResolveKey(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "config", k)

	s = NewExtractService(&fakeModel{}, fakeKeys{}, "", 1, 0)
	_, err = s.ResolveKey(ctx, "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestExtractText(t *testing.T) {
	m := &fakeModel{answers: map[string]string{"": "```json\n[{\"name\":\"Alice\",\"role\":\"Tank\"}]\n```"}}
	s := NewExtractService(m, nil, "k", 2, time.Second)

	rows, err := s.Extract(context.Background(), ScanInput{Text: "Alice - tank"})
	require.NoError(t, err)
	assert.Equal(t, []model.RosterRow{{Name: "Alice", Role: "Tank"}}, rows)
	require.Len(t, m.prompts, 1)
	assert.Equal(t, rosterTextInstruction, m.prompts[0].Instruction)
	assert.Equal(t, "Alice - tank", m.prompts[0].Text)
	assert.Equal(t, []string{"k"}, m.keys)
}

func TestExtractMergesImagesInOrder(t *testing.T) {
	m := &fakeModel{answers: map[string]string{
		"a.png": `[{"name":"Alice","role":"Tank"},{"name":"Bob","role":"Healer"}]`,
		"b.png": `[{"name":"BOB","role":"Melee"},{"name":"Carol","role":"Ranged"}]`,
	}}
	s := NewExtractService(m, nil, "k", 2, time.Second)

	rows, err := s.Extract(context.Background(), ScanInput{Images: []Image{
		{Filename: "a.png", MIMEType: "image/png", Data: []byte{1}},
		{Filename: "b.png", MIMEType: "image/png", Data: []byte{2}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []model.RosterRow{
		{Name: "Alice", Role: "Tank"},
		{Name: "Bob", Role: "Healer"},
		{Name: "Carol", Role: "Ranged"},
	}, rows)
	assert.Len(t, m.prompts, 2)
}

func TestExtractErrors(t *testing.T) {
	ctx := context.Background()

	s := NewExtractService(&fakeModel{}, nil, "k", 1, 0)
	_, err := s.Extract(ctx, ScanInput{Text: "   "})
	assert.ErrorIs(t, err, ErrNoImage)

	s = NewExtractService(&fakeModel{answers: map[string]string{"": "no players here"}}, nil, "k", 1, 0)
	_, err = s.Extract(ctx, ScanInput{Text: "x"})
	assert.ErrorIs(t, err, ErrNoRoster)

	s = NewExtractService(&fakeModel{err: errors.New("Error 429, Message: Resource has been exhausted, Status: RESOURCE_EXHAUSTED")}, nil, "k", 1, 0)
	_, err = s.Extract(ctx, ScanInput{Images: []Image{{Filename: "a.png"}}})
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Contains(t, err.Error(), "a.png")

	s = NewExtractService(&fakeModel{err: errors.New("Error 400, Message: API key not valid")}, nil, "k", 1, 0)
	_, err = s.Extract(ctx, ScanInput{Text: "x"})
	assert.ErrorIs(t, err, ErrProvider)
	assert.NotErrorIs(t, err, ErrQuotaExhausted)
}

func TestClassifyProviderError(t *testing.T) {
	assert.ErrorIs(t, classifyProviderError(context.Canceled), context.Canceled)
	assert.ErrorIs(t, classifyProviderError(context.DeadlineExceeded), ErrProvider)
	assert.ErrorIs(t, classifyProviderError(errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED")), ErrQuotaExhausted)
	assert.ErrorIs(t, classifyProviderError(errors.New("boom")), ErrProvider)
}

func TestGeminiClientCacheIsBounded(t *testing.T) {
	g := NewGeminiClient("gemini-2.5-flash")
	ctx := context.Background()

	first, err := g.client(ctx, "key-0")
	require.NoError(t, err)
	again, err := g.client(ctx, "key-0")
	require.NoError(t, err)
	assert.Same(t, first, again)

	for i := 1; i < 3*maxCachedClients; i++ {
		_, err := g.client(ctx, fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}
	assert.Len(t, g.clients, maxCachedClients)
}
