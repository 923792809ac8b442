package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/apperrors"
	"github.com/ekaya-inc/hospital-assistant/pkg/config"
)

// ModelFactory is the interface for resolving a catalog id into a ChatModel.
// Use this interface for dependency injection and testing.
type ModelFactory interface {
	ForModel(id string) (ChatModel, ModelInfo, error)
	Catalog() *Catalog
	Available() bool
}

// ClientFactory builds provider backends from process configuration.
// Each provider shares one circuit breaker across all of its models.
type ClientFactory struct {
	ai       config.AIConfig
	catalog  *Catalog
	breakers map[Provider]*CircuitBreaker
	logger   *zap.Logger
}

// NewClientFactory creates a new factory over the given catalog.
func NewClientFactory(ai config.AIConfig, catalog *Catalog, logger *zap.Logger) *ClientFactory {
	breakers := make(map[Provider]*CircuitBreaker, 3)
	for _, p := range []Provider{ProviderGroq, ProviderOpenAI, ProviderAnthropic} {
		breakers[p] = NewCircuitBreaker(string(p), DefaultCircuitBreakerConfig())
	}
	return &ClientFactory{
		ai:       ai,
		catalog:  catalog,
		breakers: breakers,
		logger:   logger,
	}
}

// Catalog returns the catalog this factory resolves against.
func (f *ClientFactory) Catalog() *Catalog {
	return f.catalog
}

// Available reports whether any provider credential is configured.
func (f *ClientFactory) Available() bool {
	return f.ai.Available()
}

// ForModel resolves id and constructs its backend. Both failure modes are
// configuration errors detected before any network I/O.
func (f *ClientFactory) ForModel(id string) (ChatModel, ModelInfo, error) {
	info, err := f.catalog.Lookup(id)
	if err != nil {
		return nil, ModelInfo{}, err
	}

	var (
		model ChatModel
		key   string
	)
	switch info.Provider {
	case ProviderGroq:
		key = f.ai.GroqAPIKey
	case ProviderOpenAI:
		key = f.ai.OpenAIAPIKey
	case ProviderAnthropic:
		key = f.ai.AnthropicAPIKey
	default:
		return nil, info, fmt.Errorf("%w: %s", apperrors.ErrUnknownProvider, info.Provider)
	}
	if key == "" {
		return nil, info, fmt.Errorf("%w: %s is not configured", apperrors.ErrMissingCredential, credentialEnv(info.Provider))
	}

	switch info.Provider {
	case ProviderGroq:
		model, err = NewClient(&Config{Endpoint: f.ai.GroqBaseURL, Model: info.ProviderModel, APIKey: key}, f.logger)
	case ProviderOpenAI:
		model, err = NewClient(&Config{Endpoint: f.ai.OpenAIBaseURL, Model: info.ProviderModel, APIKey: key}, f.logger)
	case ProviderAnthropic:
		model, err = NewAnthropicClient(&AnthropicConfig{Model: info.ProviderModel, APIKey: key}, f.logger)
	}
	if err != nil {
		return nil, info, fmt.Errorf("create %s client: %w", info.Provider, err)
	}

	return newGuardedModel(model, f.breakers[info.Provider], f.logger.Named("llm")), info, nil
}

func credentialEnv(p Provider) string {
	switch p {
	case ProviderGroq:
		return "GROQ_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	}
	return "API key"
}

// Ensure ClientFactory implements ModelFactory at compile time.
var _ ModelFactory = (*ClientFactory)(nil)
