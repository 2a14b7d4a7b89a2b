package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type ollamaProvider struct {
	client *http.Client
	url    string
	model  string
	system string
}

// NewOllamaProvider returns a Provider backed by a local Ollama server.
func NewOllamaProvider(url, model string) Provider {
	return &ollamaProvider{
		client: &http.Client{Timeout: 2 * time.Minute},
		url:    url,
		model:  model,
		system: SystemInstruction,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (p *ollamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: p.model, Prompt: prompt, System: p.system, Stream: false})
	if err != nil {
		return "", fmt.Errorf("%w: could not marshal request: %v", ErrCompletionFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: could not create http request: %v", ErrCompletionFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: http request failed: %v", ErrCompletionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: could not read response body: %v", ErrCompletionFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: api returned non-200 status %d: %s", ErrCompletionFailed, resp.StatusCode, string(bodyBytes))
	}

	var genResp generateResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		return "", fmt.Errorf("%w: could not decode response: %s", ErrCompletionFailed, string(bodyBytes))
	}
	if genResp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrCompletionFailed, genResp.Error)
	}
	return genResp.Response, nil
}

// Ping reports whether the Ollama server answers.
func (p *ollamaProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}
