package llm

import (
	"fmt"

	"github.com/ekaya-inc/hospital-assistant/pkg/apperrors"
)

// Provider identifies the backend that serves a model.
type Provider string

const (
	ProviderGroq      Provider = "groq"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ModelInfo describes one entry in the model catalog.
type ModelInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Provider      Provider `json:"provider"`
	ProviderModel string   `json:"-"`
}

// Catalog is an immutable, ordered set of models.
type Catalog struct {
	models []ModelInfo
	byID   map[string]int
}

// NewCatalog builds a catalog. Duplicate ids keep the first entry.
func NewCatalog(models ...ModelInfo) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(models))}
	for _, m := range models {
		if _, dup := c.byID[m.ID]; dup {
			continue
		}
		c.byID[m.ID] = len(c.models)
		c.models = append(c.models, m)
	}
	return c
}

// DefaultCatalog returns the models the assistant offers.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		ModelInfo{ID: "llama-3.3-70b", Name: "LLaMA 3.3 70B", Description: "Fast, powerful, free", Provider: ProviderGroq, ProviderModel: "llama-3.3-70b-versatile"},
		ModelInfo{ID: "llama-3.1-8b", Name: "LLaMA 3.1 8B", Description: "Ultra-fast, free", Provider: ProviderGroq, ProviderModel: "llama-3.1-8b-instant"},
		ModelInfo{ID: "mixtral-8x7b", Name: "Mixtral 8x7B", Description: "Balanced, free", Provider: ProviderGroq, ProviderModel: "mixtral-8x7b-32768"},
		ModelInfo{ID: "gemma-7b", Name: "Gemma 7B", Description: "Google, free", Provider: ProviderGroq, ProviderModel: "gemma-7b-it"},
		ModelInfo{ID: "gpt-4", Name: "GPT-4", Description: "Most capable (paid)", Provider: ProviderOpenAI, ProviderModel: "gpt-4"},
		ModelInfo{ID: "gpt-3.5", Name: "GPT-3.5 Turbo", Description: "Fast, affordable", Provider: ProviderOpenAI, ProviderModel: "gpt-3.5-turbo"},
		ModelInfo{ID: "claude-3", Name: "Claude 3 Sonnet", Description: "Balanced (paid)", Provider: ProviderAnthropic, ProviderModel: "claude-3-sonnet-20240229"},
	)
}

// Lookup returns the model registered under id.
func (c *Catalog) Lookup(id string) (ModelInfo, error) {
	i, ok := c.byID[id]
	if !ok {
		return ModelInfo{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownModel, id)
	}
	return c.models[i], nil
}

// All returns the models in catalog order. The slice is a copy.
func (c *Catalog) All() []ModelInfo {
	return append([]ModelInfo(nil), c.models...)
}
