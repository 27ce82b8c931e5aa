// DeepSeek Provider: the OpenAI-compatible API at a different base URL.

package llm

const deepseekBaseURL = "https://api.deepseek.com/v1"

// NewDeepSeekProvider creates a provider for DeepSeek's chat API.
func NewDeepSeekProvider(opts Options) *OpenAIProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = deepseekBaseURL
	}
	return newOpenAICompatible("deepseek", opts)
}
