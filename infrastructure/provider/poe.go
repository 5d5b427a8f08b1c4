package provider

// PoeConfig configures the Poe provider.
type PoeConfig struct {
	APIKey  string // Required: Poe API key
	BaseURL string // Default: https://api.poe.com
	Model   string // Poe bot name, e.g. "Gemini-2.0-Flash"
	Timeout int    // Timeout in seconds (default: 120)
}

// NewPoeProvider creates a provider for Poe's OpenAI-compatible endpoint.
// Bots are addressed by name through the model field.
func NewPoeProvider(config PoeConfig) *OpenAIProvider {
	return newOpenAICompatible("poe", "https://api.poe.com", OpenAIConfig(config))
}
