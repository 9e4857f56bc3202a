package cli

import (
	"fmt"
	"strings"

	"github.com/mgpai22/kashi/internal/translate"
)

var geminiModels = []string{
	"gemini-3-pro-preview",
	"gemini-3-flash-preview",
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
}

var openAIModels = []string{
	"o1", "o3-mini", "o1-pro", "o3",
	"gpt-5", "gpt-5-nano", "gpt-5-mini", "gpt-5-pro",
	"gpt-5.1", "gpt-5.2", "gpt-5.2-pro",
}

var anthropicModels = []string{
	"claude-haiku-4-5",
	"claude-sonnet-4-5",
	"claude-opus-4-1",
}

func isValidModel(models []string, model string) bool {
	model = strings.TrimSpace(model)
	for _, m := range models {
		if strings.EqualFold(m, model) {
			return true
		}
	}
	return false
}

// validateModel rejects models outside the known list for a provider.
// Unknown providers are left for the translator factory to reject.
func validateModel(provider translate.Provider, model string) error {
	var (
		models []string
		name   string
	)
	switch provider {
	case translate.ProviderGemini:
		models, name = geminiModels, "Gemini"
	case translate.ProviderOpenAI:
		models, name = openAIModels, "OpenAI"
	case translate.ProviderAnthropic:
		models, name = anthropicModels, "Anthropic"
	default:
		return nil
	}

	if !isValidModel(models, model) {
		return fmt.Errorf(
			"unsupported %s model %q: valid models are %s (use --model-override to bypass)",
			name,
			model,
			strings.Join(models, ", "),
		)
	}
	return nil
}
