package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/spec-kit/support-triage/internal/config"
	"github.com/spec-kit/support-triage/internal/domain"
)

// errNoContent means the service answered but produced no text.
var errNoContent = errors.New("no content generated")

// GeminiClassifier classifies issue text with the Gemini generateContent API.
// Classify never fails: every problem is logged and replaced by the fallback.
type GeminiClassifier struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiClassifier builds a classifier from configuration.
func NewGeminiClassifier(cfg config.ClassifierConfig, logger *zap.Logger) *GeminiClassifier {
	timeout := cfg.Timeout()
	return &GeminiClassifier{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("classifier"),
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Classify returns the triage decision for rawText.
func (g *GeminiClassifier) Classify(ctx context.Context, rawText string) domain.Classification {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.generate(ctx, BuildPrompt(rawText))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			g.logger.Error("classifier timeout", zap.Duration("timeout", g.timeout))
		} else {
			g.logger.Error("classifier unavailable", zap.Error(err))
		}
		return domain.FallbackClassification()
	}

	result, ok := Interpret(text)
	if !ok {
		g.logger.Error("no valid JSON found in classifier reply", zap.Int("reply_len", len(text)))
	}
	return result
}

func (g *GeminiClassifier) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", errNoContent
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
