package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetModel_ConfiguredTier(t *testing.T) {
	cfg := DefaultGeminiConfig()
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", cfg.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", cfg.GetModel(TierAdvanced))
}

func TestGetModel_FallbackChain(t *testing.T) {
	cfg := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "lite-only",
		},
	}
	// Unknown tier falls back to standard, then lite
	assert.Equal(t, "lite-only", cfg.GetModel(TierAdvanced))

	empty := &Config{Provider: ProviderGemini, Models: map[ModelTier]string{}}
	assert.Equal(t, "", empty.GetModel(TierStandard))
}

func TestWithModel_DoesNotMutateOriginal(t *testing.T) {
	cfg := DefaultGeminiConfig()
	modified := cfg.WithModel(TierLite, "custom-model")

	assert.Equal(t, "custom-model", modified.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GetModel(TierLite))
}
