package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/truongnet3103/albion-GE/internal/model"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

const rosterInstruction = `You read screenshots of an Albion Online party / call-to-arms roster.
List every player visible in the roster. For each player give the character name exactly as
written (keep case, digits and symbols) and the role they are playing, chosen from exactly
one of: Tank, Healer, Melee, Ranged, Support.
Return only a JSON array, no explanation, in this shape:
[{"name":"PlayerOne","role":"Tank"},{"name":"PlayerTwo","role":"Healer"}]`

const rosterTextInstruction = `The following text is a pasted Albion Online party / call-to-arms roster.
List every player in it with their role, chosen from exactly one of: Tank, Healer, Melee, Ranged, Support.
Return only a JSON array, no explanation, in this shape:
[{"name":"PlayerOne","role":"Tank"}]`

// Image is one uploaded screenshot.
type Image struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Prompt is a single model request: the instruction plus an image or pasted text.
type Prompt struct {
	Instruction string
	Image       *Image
	Text        string
}

// ModelClient sends a prompt to a generative model under the given credential
// and returns the raw answer text.
type ModelClient interface {
	Generate(ctx context.Context, apiKey string, p Prompt) (string, error)
}

// KeySource yields the centrally stored credential, "" when none is set.
type KeySource interface {
	SharedAPIKey(ctx context.Context) (string, error)
}

// maxCachedClients bounds how many per-key clients stay in memory; keys typed
// in for a single session would otherwise accumulate forever.
const maxCachedClients = 4

type GeminiClient struct {
	model   string
	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewGeminiClient(modelName string) *GeminiClient {
	return &GeminiClient{model: modelName, clients: map[string]*genai.Client{}}
}

func (g *GeminiClient) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if len(g.clients) >= maxCachedClients {
		for k := range g.clients {
			delete(g.clients, k)
			break
		}
	}
	g.clients[apiKey] = c
	return c, nil
}

func (g *GeminiClient) Generate(ctx context.Context, apiKey string, p Prompt) (string, error) {
	c, err := g.client(ctx, apiKey)
	if err != nil {
		return "", err
	}

	parts := []*genai.Part{genai.NewPartFromText(p.Instruction)}
	if p.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(p.Image.Data, p.Image.MIMEType))
	}
	if p.Text != "" {
		parts = append(parts, genai.NewPartFromText(p.Text))
	}

	resp, err := c.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)},
	)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// ScanInput is what an admin hands in for extraction. APIKey is the optional
// per-session credential.
type ScanInput struct {
	Images []Image
	Text   string
	APIKey string
}

type ExtractService struct {
	model       ModelClient
	keys        KeySource
	fallbackKey string
	concurrency int
	timeout     time.Duration
}

func NewExtractService(m ModelClient, keys KeySource, fallbackKey string, concurrency int, timeout time.Duration) *ExtractService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ExtractService{model: m, keys: keys, fallbackKey: fallbackKey, concurrency: concurrency, timeout: timeout}
}

// ResolveKey picks the session key, then the shared stored key, then the
// configured one.
func (s *ExtractService) ResolveKey(ctx context.Context, sessionKey string) (string, error) {
	if k := strings.TrimSpace(sessionKey); k != "" {
		return k, nil
	}
	if s.keys != nil {
		k, err := s.keys.SharedAPIKey(ctx)
		if err != nil {
			return "", fmt.Errorf("load shared key: %w", err)
		}
		if k != "" {
			return k, nil
		}
	}
	if s.fallbackKey != "" {
		return s.fallbackKey, nil
	}
	return "", ErrNoAPIKey
}

// Extract runs the roster through the model. Screenshots are read in parallel
// and merged in upload order; a name seen twice, ignoring case, keeps its
// first row.
// Any failed call fails the whole extraction and nothing is retried.
func (s *ExtractService) Extract(ctx context.Context, in ScanInput) ([]model.RosterRow, error) {
	if len(in.Images) == 0 && strings.TrimSpace(in.Text) == "" {
		return nil, ErrNoImage
	}
	key, err := s.ResolveKey(ctx, in.APIKey)
	if err != nil {
		return nil, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if len(in.Images) == 0 {
		return s.extractOne(ctx, key, Prompt{Instruction: rosterTextInstruction, Text: in.Text})
	}

	results := make([][]model.RosterRow, len(in.Images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range in.Images {
		img := &in.Images[i]
		g.Go(func() error {
			rows, err := s.extractOne(gctx, key, Prompt{Instruction: rosterInstruction, Image: img})
			if err != nil {
				return fmt.Errorf("%s: %w", img.Filename, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mergeRows(results), nil
}

func (s *ExtractService) extractOne(ctx context.Context, key string, p Prompt) ([]model.RosterRow, error) {
	text, err := s.model.Generate(ctx, key, p)
	if err != nil {
		return nil, classifyProviderError(err)
	}
	return ParseRoster(text)
}

func mergeRows(batches [][]model.RosterRow) []model.RosterRow {
	merged := []model.RosterRow{}
	seen := map[string]bool{}
	for _, rows := range batches {
		for _, r := range rows {
			name := strings.ToLower(strings.TrimSpace(r.Name))
			if name != "" && seen[name] {
				continue
			}
			seen[name] = true
			merged = append(merged, r)
		}
	}
	return merged
}

// classifyProviderError tags quota exhaustion, which the provider reports as
// HTTP 429 / RESOURCE_EXHAUSTED inside the error text.
func classifyProviderError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timed out: %v", ErrProvider, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
	}
	return fmt.Errorf("%w: %v", ErrProvider, err)
}
