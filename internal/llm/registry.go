package llm

import (
	"fmt"
	"sort"
)

// Registry is an immutable lookup table of known models
type Registry struct {
	tables []Table
	urls   map[Provider]string
}

// NewRegistry builds a registry from provider tables.
// Tables are consulted in the order given when classifying a model.
func NewRegistry(tables ...Table) (*Registry, error) {
	reg := &Registry{urls: make(map[Provider]string)}
	seen := make(map[string]Provider)

	for _, t := range tables {
		if _, err := ParseProvider(string(t.Provider)); err != nil {
			return nil, err
		}
		if _, dup := reg.urls[t.Provider]; dup {
			return nil, fmt.Errorf("duplicate table for provider %s", t.Provider)
		}

		pricing := make(map[string]Pricing, len(t.Pricing))
		for id, p := range t.Pricing {
			if other, ok := seen[id]; ok {
				return nil, fmt.Errorf("model %s priced by both %s and %s", id, other, t.Provider)
			}
			if p.InputPerMillion < 0 || p.OutputPerMillion < 0 {
				return nil, fmt.Errorf("model %s has negative pricing", id)
			}
			seen[id] = t.Provider
			pricing[id] = p
		}

		caps := make(map[string]Capabilities, len(t.Capabilities))
		for id, c := range t.Capabilities {
			if _, ok := pricing[id]; !ok {
				return nil, fmt.Errorf("model %s has capabilities but no %s pricing", id, t.Provider)
			}
			if c.TokenLimitParam != MaxTokens && c.TokenLimitParam != MaxCompletionTokens {
				return nil, fmt.Errorf("model %s has unknown token limit parameter %q", id, c.TokenLimitParam)
			}
			if c.ContextWindow < 0 {
				return nil, fmt.Errorf("model %s has negative context window", id)
			}
			caps[id] = c
		}

		reg.tables = append(reg.tables, Table{
			Provider:     t.Provider,
			PricingURL:   t.PricingURL,
			Pricing:      pricing,
			Capabilities: caps,
		})
		reg.urls[t.Provider] = t.PricingURL
	}

	return reg, nil
}

// ClassifyProvider returns the provider whose pricing table contains the model
func (r *Registry) ClassifyProvider(id string) (Provider, error) {
	for _, t := range r.tables {
		if _, ok := t.Pricing[id]; ok {
			return t.Provider, nil
		}
	}
	return "", unknownModel(id)
}

// Lookup returns the descriptor for a model id
func (r *Registry) Lookup(id string) (Model, error) {
	for _, t := range r.tables {
		pricing, ok := t.Pricing[id]
		if !ok {
			continue
		}

		m := Model{ID: id, Provider: t.Provider, Pricing: pricing}
		if caps, ok := t.Capabilities[id]; ok {
			m.Capabilities = &caps
		}
		return m, nil
	}
	return Model{}, unknownModel(id)
}

// Models returns every registered model, sorted by provider then id
func (r *Registry) Models() []Model {
	var models []Model
	for _, t := range r.tables {
		ids := make([]string, 0, len(t.Pricing))
		for id := range t.Pricing {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			m, _ := r.Lookup(id)
			models = append(models, m)
		}
	}
	return models
}

// PricingURL returns where to check current rates for a provider
func (r *Registry) PricingURL(p Provider) string {
	return r.urls[p]
}
