// Package collab implements the LLM collaborators the expansion loop
// consults: a candidate generator, a validation judge, and a syllabifier.
// All three share one Anthropic client and one rate limiter.
package collab

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/osoleve/namecorpus/pkg/anthropic"
)

// Config holds the shared collaborator settings.
type Config struct {
	GeneratorModel string
	ValidatorModel string
	MaxTokens      int64
	RequestsPerSec float64
}

// DefaultConfig returns production settings.
func DefaultConfig() Config {
	return Config{
		GeneratorModel: "claude-sonnet-4-5-20250929",
		ValidatorModel: "claude-haiku-4-5-20251001",
		MaxTokens:      1024,
		RequestsPerSec: 4.0,
	}
}

// Collaborators bundles the three LLM roles over one client.
type Collaborators struct {
	Generator   *LLMGenerator
	Validator   *LLMValidator
	Syllabifier *LLMSyllabifier
}

// New wires the three collaborators to a shared client and limiter.
func New(client anthropic.Client, cfg Config) *Collaborators {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	caller := &caller{client: client, limiter: limiter, maxTokens: cfg.MaxTokens}
	return &Collaborators{
		Generator:   &LLMGenerator{caller: caller, model: cfg.GeneratorModel},
		Validator:   &LLMValidator{caller: caller, model: cfg.ValidatorModel},
		Syllabifier: &LLMSyllabifier{caller: caller, model: cfg.GeneratorModel},
	}
}

// caller serializes API access through the shared rate limiter.
type caller struct {
	client    anthropic.Client
	limiter   *rate.Limiter
	maxTokens int64
}

func (c *caller) call(ctx context.Context, model, phase string, system []anthropic.SystemBlock, msgs []anthropic.Message, temperature *float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "collab: rate limiter")
	}

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   c.maxTokens,
		System:      system,
		Messages:    msgs,
		Temperature: temperature,
	})
	if err != nil {
		return "", eris.Wrapf(err, "collab: %s", phase)
	}
	resp.Usage.LogCost(model, phase)

	return resp.Text(), nil
}

// cleanLine strips list markers and normalizes a model output line to NFC.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*0123456789.) \t")
	line = strings.Trim(line, "\"'`")
	return norm.NFC.String(strings.TrimSpace(line))
}

func floatPtr(f float64) *float64 { return &f }
