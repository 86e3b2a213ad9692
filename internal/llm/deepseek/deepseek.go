package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"quant-trading-bot/internal/api"
	"quant-trading-bot/internal/interfaces"
	"quant-trading-bot/internal/store"
	"quant-trading-bot/internal/trace"
	"quant-trading-bot/internal/types"
)

// ErrInferenceUnavailable marks transient provider failures; the caller
// treats the cycle as signal-less and holds.
var ErrInferenceUnavailable = errors.New("inference unavailable")

const defaultSystem = "You are a disciplined crypto trading assistant. " +
	"Respond ONLY with compact JSON: " +
	`{"direction":"LONG|SHORT|NEUTRAL","confidence":0.0,"support":0.0,"resistance":0.0,"reason":""}. ` +
	"Ground every call in the supplied indicator bundle."

// Provider asks a DeepSeek chat-completion endpoint for a structured
// trade signal.
type Provider struct {
	cfg    *store.Config
	client *api.Client
	// Enrich, when set, contributes extra context lines to the prompt
	// (e.g. news sentiment). Optional.
	Enrich func(ctx context.Context, symbol string) string
}

var _ interfaces.SignalProvider = (*Provider)(nil)

func NewProvider(cfg *store.Config) *Provider {
	return &Provider{
		cfg: cfg,
		client: api.NewClient(
			api.WithBaseURL(cfg.LLM.APIURL),
			api.WithTimeout(cfg.SignalTimeout()),
			api.WithHeader("Authorization", "Bearer "+os.Getenv("DEEPSEEK_API_KEY")),
			api.WithLogging(true),
		),
	}
}

func (p *Provider) Infer(ctx context.Context, snap types.FeatureSnapshot) (types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "deepseek.Infer")
	defer span.End()

	if os.Getenv("DEEPSEEK_API_KEY") == "" {
		return types.Signal{}, fmt.Errorf("%w: DEEPSEEK_API_KEY missing", ErrInferenceUnavailable)
	}

	state, _ := json.Marshal(map[string]any{
		"symbol":     snap.Symbol,
		"primary":    snap.Primary,
		"timeframes": snap.Timeframes,
	})
	prompt := "Market state as JSON follows. Reply only with the signal JSON.\n" + string(state)
	if p.Enrich != nil {
		if extra := p.Enrich(ctx, snap.Symbol); extra != "" {
			prompt += "\nContext:\n" + extra
		}
	}

	system := p.cfg.LLM.System
	if system == "" {
		system = defaultSystem
	}
	body := map[string]any{
		"model": p.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
		"temperature":     p.cfg.LLM.Temperature,
		"max_tokens":      p.cfg.LLM.MaxTokens,
		"response_format": map[string]string{"type": "json_object"},
	}

	resp, err := p.client.PostJSON(ctx, "/chat/completions", body)
	if err != nil {
		return types.Signal{}, fmt.Errorf("%w: %v", ErrInferenceUnavailable, err)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.JSON(&r); err != nil {
		return types.Signal{}, fmt.Errorf("%w: %v", ErrInferenceUnavailable, err)
	}
	if len(r.Choices) == 0 {
		return types.Signal{}, fmt.Errorf("%w: empty completion", ErrInferenceUnavailable)
	}

	return parseSignal(r.Choices[0].Message.Content), nil
}

// parseSignal sanitizes the model output: unknown directions and
// out-of-range confidences collapse to a neutral no-trade signal.
func parseSignal(content string) types.Signal {
	var sig types.Signal
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &sig); err != nil {
		return types.Signal{Direction: types.DirNeutral, Reason: "invalid_json", IssuedAt: time.Now()}
	}
	sig.Direction = types.Direction(strings.ToUpper(string(sig.Direction)))
	switch sig.Direction {
	case types.DirLong, types.DirShort, types.DirNeutral:
	default:
		sig.Direction = types.DirNeutral
	}
	if sig.Confidence < 0 || sig.Confidence > 1 {
		sig.Confidence = 0
	}
	sig.IssuedAt = time.Now()
	return sig
}
