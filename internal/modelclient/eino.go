// internal/modelclient/eino.go
package modelclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/common/logger"
)

// ChatModelFactory builds a chat model bound to one model identifier.
type ChatModelFactory func(ctx context.Context, baseURL, modelID string) (model.BaseChatModel, error)

func newOllamaChatModel(ctx context.Context, baseURL, modelID string) (model.BaseChatModel, error) {
	return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   modelID,
	})
}

// EinoClient talks to the inference server through Eino chat models,
// building one per model identifier on first use.
type EinoClient struct {
	config  *Config
	factory ChatModelFactory
	logger  logger.Logger

	mu     sync.Mutex
	models map[string]model.BaseChatModel
}

// NewEinoClient builds one Eino chat model per model name on first use.
func NewEinoClient(cfg *Config, log logger.Logger) *EinoClient {
	return NewEinoClientWithFactory(cfg, newOllamaChatModel, log)
}

// NewEinoClientWithFactory allows a custom chat model constructor.
func NewEinoClientWithFactory(cfg *Config, factory ChatModelFactory, log logger.Logger) *EinoClient {
	return &EinoClient{
		config:  cfg,
		factory: factory,
		logger: log.With(map[string]interface{}{
			"component": "modelclient",
			"backend":   BackendEino,
		}),
		models: make(map[string]model.BaseChatModel),
	}
}

func (c *EinoClient) chatModel(ctx context.Context, modelID string) (model.BaseChatModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cm, ok := c.models[modelID]; ok {
		return cm, nil
	}
	cm, err := c.factory(ctx, c.config.BaseURL, modelID)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	c.models[modelID] = cm
	return cm, nil
}

func (c *EinoClient) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	return instrument(modelID, func() (string, error) {
		start := time.Now()
		text, err := c.execute(ctx, modelID, prompt)
		if err != nil {
			err = classifyCallError(ctx, modelID, c.config.Timeout, err)
			c.logger.Warn("generation failed", map[string]interface{}{
				"model":      modelID,
				"errorCode":  string(apperrors.CodeOf(err)),
				"error":      err.Error(),
				"durationMs": time.Since(start).Milliseconds(),
			})
			return "", err
		}
		c.logger.Info("generation completed", map[string]interface{}{
			"model":      modelID,
			"chars":      len(text),
			"durationMs": time.Since(start).Milliseconds(),
		})
		return text, nil
	})
}

func (c *EinoClient) execute(ctx context.Context, modelID, prompt string) (string, error) {
	cm, err := c.chatModel(ctx, modelID)
	if err != nil {
		return "", apperrors.NewModelUnavailableError(modelID, err)
	}

	var opts []model.Option
	if c.config.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(c.config.MaxTokens))
	}
	if c.config.Temperature > 0 {
		opts = append(opts, model.WithTemperature(float32(c.config.Temperature)))
	}

	msg, err := cm.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, opts...)
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", apperrors.NewGenerationError(modelID, errors.New("no message returned"))
	}

	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", apperrors.NewGenerationError(modelID, errors.New("model returned empty output"))
	}
	return text, nil
}
