// Package llm builds chat models for the supported providers using CloudWeGo Eino.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Provider identifies the LLM provider to use.
type Provider string

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider Provider
	Model    string
	APIKey   string // Required for all hosted providers
	BaseURL  string // Ollama server, or an OpenAI/Anthropic compatible endpoint
}

// CloseableChatModel pairs a chat model with whatever client it holds open.
type CloseableChatModel struct {
	model.BaseChatModel
	closer func() error
	once   sync.Once
}

// Close releases provider resources. Safe to call more than once.
func (c *CloseableChatModel) Close() error {
	var err error
	c.once.Do(func() {
		if c.closer != nil {
			err = c.closer()
		}
	})
	return err
}

// NewCloseableChatModel creates a chat model for cfg.Provider.
func NewCloseableChatModel(ctx context.Context, cfg Config) (*CloseableChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModelForProvider(string(cfg.Provider))
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:   modelName,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return &CloseableChatModel{BaseChatModel: cm}, nil

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		cm, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   modelName,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama chat model: %w", err)
		}
		return &CloseableChatModel{BaseChatModel: cm}, nil

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required")
		}
		ccfg := &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     modelName,
			MaxTokens: DefaultMaxTokens,
		}
		if cfg.BaseURL != "" {
			ccfg.BaseURL = &cfg.BaseURL
		}
		cm, err := claude.NewChatModel(ctx, ccfg)
		if err != nil {
			return nil, fmt.Errorf("create anthropic chat model: %w", err)
		}
		return &CloseableChatModel{BaseChatModel: cm}, nil

	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini chat model: %w", err)
		}
		gc := &genaiClientCloser{client: client}
		return &CloseableChatModel{BaseChatModel: cm, closer: gc.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: %s)", cfg.Provider, strings.Join(SupportedProviders(), ", "))
	}
}

// genaiClientCloser drops the genai client reference so its transport can be
// collected. The SDK exposes no explicit Close.
type genaiClientCloser struct {
	mu     sync.Mutex
	client *genai.Client
}

func (g *genaiClientCloser) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.client = nil
	return nil
}

// ValidateProvider checks if the given provider string is supported.
func ValidateProvider(p string) (Provider, error) {
	switch Provider(p) {
	case ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderGemini:
		return Provider(p), nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", p)
	}
}

// SupportedProviders lists provider IDs in display order.
func SupportedProviders() []string {
	return []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama}
}

// RequiresAPIKey reports whether the provider needs a key to be configured.
func RequiresAPIKey(p Provider) bool {
	return p != ProviderOllama
}
