// Package recipe generates recipe suggestions through the Gemini API.
package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds the Gemini credentials from environment variables.
type Config struct {
	APIKey string
	Model  string
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	config  Config
	client  *http.Client
	baseURL string
}

// NewClient creates a recipe client. The client is unconfigured (and Generate
// fails) when the API key is empty.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-pro"
	}
	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate asks for a recipe for the given meal type and returns the model's
// text response verbatim.
func (c *Client) Generate(ctx context.Context, mealType string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("recipe API key not configured")
	}

	prompt := fmt.Sprintf(`Gere uma receita para um(a) %s. A receita deve incluir:
1. Nome da receita
2. Lista de ingredientes com quantidades
3. Modo de preparo detalhado
4. Tempo de preparo estimado
5. Rendimento (porções)

Por favor, formate a resposta de maneira clara e organizada.`, mealType)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.config.Model, c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("recipe API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("recipe API returned status %d: %s", resp.StatusCode, msg)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode recipe response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("recipe API returned no candidates")
	}
	return genResp.Candidates[0].Content.Parts[0].Text, nil
}
