// internal/modelclient/ollama.go
package modelclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "art-of-prompting/internal/common/errors"
	httpclient "art-of-prompting/internal/common/http"
	"art-of-prompting/internal/common/logger"
)

const maxLineSize = 4 << 20

// OllamaClient calls the Ollama /api/generate endpoint directly.
type OllamaClient struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger
}

// NewOllamaClient calls the Ollama HTTP API at cfg.BaseURL.
func NewOllamaClient(cfg *Config, log logger.Logger) *OllamaClient {
	return &OllamaClient{
		config: cfg,
		// the deadline comes from the per-call context
		client: httpclient.NewClient(0),
		logger: log.With(map[string]interface{}{
			"component": "modelclient",
			"backend":   BackendOllama,
		}),
	}
}

// Generate sends one non-streaming generate request and returns the full text.
func (c *OllamaClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	return instrument(model, func() (string, error) {
		start := time.Now()
		text, err := c.execute(ctx, model, prompt)
		if err != nil {
			err = classifyCallError(ctx, model, c.config.Timeout, err)
			c.logger.Warn("generation failed", map[string]interface{}{
				"model":      model,
				"errorCode":  string(apperrors.CodeOf(err)),
				"error":      err.Error(),
				"durationMs": time.Since(start).Milliseconds(),
			})
			return "", err
		}

		c.logger.Info("generation completed", map[string]interface{}{
			"model":      model,
			"chars":      len(text),
			"durationMs": time.Since(start).Milliseconds(),
		})
		return text, nil
	})
}

func (c *OllamaClient) execute(ctx context.Context, model, prompt string) (string, error) {
	payload := generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	}
	if c.config.MaxTokens > 0 || c.config.Temperature > 0 {
		payload.Options = &generateOptions{NumPredict: c.config.MaxTokens}
		if c.config.Temperature > 0 {
			t := c.config.Temperature
			payload.Options.Temperature = &t
		}
	}

	resp, err := c.client.PostJSON(ctx, c.config.BaseURL+"/api/generate", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readErrorMessage(resp.Body)
		statusErr := fmt.Errorf("status %d: %s", resp.StatusCode, msg)
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusServiceUnavailable {
			return "", apperrors.NewModelUnavailableError(model, statusErr)
		}
		return "", apperrors.NewGenerationError(model, statusErr)
	}

	return readGenerateBody(ctx, model, resp.Body)
}

// readGenerateBody accepts both a single JSON object and newline-delimited chunks.
func readGenerateBody(ctx context.Context, model string, body io.Reader) (string, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		out    strings.Builder
		chunks int
	)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var chunk generateChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return "", apperrors.NewGenerationError(model, fmt.Errorf("decode error: %w", err))
		}
		if chunk.Error != "" {
			return "", apperrors.NewGenerationError(model, errors.New(chunk.Error))
		}
		chunks++
		out.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apperrors.NewGenerationError(model, fmt.Errorf("read error: %w", err))
	}

	if chunks == 0 {
		return "", apperrors.NewGenerationError(model, errors.New("empty response body"))
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", apperrors.NewGenerationError(model, errors.New("model returned empty output"))
	}
	return text, nil
}

func readErrorMessage(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	return strings.TrimSpace(string(data))
}

// ListModels returns the model names installed on the server.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	var tags tagsResponse
	if err := c.client.GetJSON(ctx, c.config.BaseURL+"/api/tags", &tags); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		names = append(names, name)
	}
	return names, nil
}
