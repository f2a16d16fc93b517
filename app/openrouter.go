// Package app calls OpenRouter to draft cold-outreach email variants.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/besservanja-cell/OutreachAI/app/config"
	"github.com/besservanja-cell/OutreachAI/app/models"
)

var errModelsExhausted = errors.New("all generation models failed")

// EmailGenerator produces email variants through OpenRouter, falling back
// across an ordered model list until one succeeds.
type EmailGenerator struct {
	apiKey  string
	baseURL string
	models  []string
	httpc   *http.Client
}

var generator *EmailGenerator

// MustInitGenerator wires the OpenRouter client from the environment.
func MustInitGenerator() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config for generator: %v", err)
	}
	if cfg.OpenRouter.APIKey == "" {
		log.Fatalf("OPENROUTER_API_KEY is not configured")
	}
	generator = NewEmailGenerator(cfg.OpenRouter)
}

// NewEmailGenerator builds a generator from explicit config so tests can
// point it at a fake upstream.
func NewEmailGenerator(cfg config.OpenRouterConfig) *EmailGenerator {
	return &EmailGenerator{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		models:  cfg.Models,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `Return ONLY valid JSON: {"variants":[{"subject":string,"body":string,"tone":string}]}
Generate 3 cold emails. Each 100-150 words. Include industry pain point, one value prop, soft CTA. Tones: professional, casual, bold.`

// Generate tries each configured model in order and returns the first
// successful variant set. Attempts run sequentially, never in parallel.
func (g *EmailGenerator) Generate(ctx context.Context, req models.GenerateRequest) ([]models.EmailVariant, error) {
	var lastErr error
	for _, model := range g.models {
		variants, err := g.generateWith(ctx, model, req)
		if err != nil {
			log.Printf("generation failed model=%s err=%v", model, err)
			lastErr = err
			continue
		}
		return variants, nil
	}
	log.Printf("all generation models failed, last err=%v", lastErr)
	return nil, errModelsExhausted
}

func (g *EmailGenerator) generateWith(ctx context.Context, model string, req models.GenerateRequest) ([]models.EmailVariant, error) {
	userPrompt := fmt.Sprintf(`Product/Service: %s
Prospect: %s
Company: %s
Industry: %s
Preferred tone: %s

Generate 3 cold email variants (professional, casual, bold). Return ONLY valid JSON with no markdown or extra text.`,
		req.Product, req.ProspectName, req.Company, req.Industry, req.Tone)

	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.8,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := g.httpc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var msg struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&msg)
		return nil, fmt.Errorf("openrouter http %d: %s", res.StatusCode, msg.Error.Message)
	}

	var completion chatResponse
	if err := json.NewDecoder(res.Body).Decode(&completion); err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return nil, errors.New("empty response content")
	}

	return parseVariants(content)
}

var reCodeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// stripCodeFence unwraps model output that arrives inside a fenced block.
func stripCodeFence(content string) string {
	if m := reCodeFence.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return content
}

// parseVariants decodes the model output, keeps at most 3 variants and fills
// in defaults for missing fields. Once the JSON parses, malformed content
// must not fail the request.
func parseVariants(content string) ([]models.EmailVariant, error) {
	var parsed struct {
		Variants []models.EmailVariant `json:"variants"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
		return nil, fmt.Errorf("invalid variants JSON: %w", err)
	}
	if len(parsed.Variants) == 0 {
		return nil, errors.New("response contains no variants")
	}

	variants := parsed.Variants
	if len(variants) > 3 {
		variants = variants[:3]
	}
	for i := range variants {
		if variants[i].Tone == "" {
			variants[i].Tone = "professional"
		}
	}
	return variants, nil
}
