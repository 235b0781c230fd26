package speech

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Provider turns text into an audio file in the provider's native encoding.
type Provider interface {
	// GetName returns the provider identifier used in configuration
	GetName() string

	// Extension returns the suffix, including the dot, of files the provider writes
	Extension() string

	// Synthesize writes speech for text to outPath
	Synthesize(ctx context.Context, text, voice, outPath string) error
}

// ProviderOptions carries provider-specific settings.
type ProviderOptions struct {
	Language   string
	EspeakPath string
	GTTSURL    string
	Client     *http.Client
}

type factory func(opts ProviderOptions) Provider

var providers = map[string]factory{
	"gtts": func(opts ProviderOptions) Provider {
		return NewGTTS(opts.GTTSURL, opts.Language, opts.Client)
	},
	"espeak": func(opts ProviderOptions) Provider {
		return NewEspeak(opts.EspeakPath, opts.Language)
	},
}

// NewProvider returns the named provider.
func NewProvider(name string, opts ProviderOptions) (Provider, error) {
	f, ok := providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported tts provider: %s (supported: %s)", name, strings.Join(ProviderNames(), ", "))
	}
	return f(opts), nil
}

// ProviderNames lists registered providers in sorted order.
func ProviderNames() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
