package agent

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"controlbot/pkg/core/llm"
)

// ReportAgent is the agent type used for narrative generation.
const ReportAgent = "report"

// DefaultProvider is used when the config names none.
const DefaultProvider = "gemini"

type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Provider    string   `yaml:"provider"` // Optional override
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
	Description string   `yaml:"description"`
}

// LoadConfig reads a models.yaml file. A missing file yields the default
// config.
func LoadConfig(path string) (Config, error) {
	cfg := Config{ActiveProvider: DefaultProvider}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.ActiveProvider == "" {
		cfg.ActiveProvider = DefaultProvider
	}
	return cfg, nil
}

// Manager resolves the provider for an agent. The active provider can be
// switched at runtime; runs already in flight keep the provider they got.
type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
}

func NewManager(config Config) *Manager {
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"gemini":        &llm.GeminiProvider{},
			"gemini-legacy": &llm.GeminiLegacyProvider{},
			"openai":        llm.NewOpenAIProvider(),
			"deepseek":      llm.NewDeepSeekProvider(),
			"kimi":          llm.NewKimiProvider(),
			"doubao":        llm.NewDoubaoProvider(),
			"qwen":          &llm.QwenProvider{},
		},
	}
}

// Register adds or replaces a provider under name.
func (m *Manager) Register(name string, p llm.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = p
}

// Resolve returns the provider for agentType together with its name and
// call options.
func (m *Manager) Resolve(agentType string) (llm.Provider, string, llm.Options, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var opts llm.Options
	name := m.config.ActiveProvider
	// 1. Check for agent-specific override
	if ac, ok := m.config.Agents[agentType]; ok {
		if ac.Provider != "" {
			name = ac.Provider
		}
		opts.Model = ac.Model
		if ac.Temperature != nil {
			opts.Temperature = *ac.Temperature
		}
	}
	if name == "" {
		name = DefaultProvider
	}
	p, ok := m.providers[name]
	if !ok {
		return nil, name, opts, fmt.Errorf("provider %s not found", name)
	}
	return p, name, opts, nil
}

// GetProviderByName retrieves a provider instance by its specific name (e.g. "deepseek", "gemini")
func (m *Manager) GetProviderByName(name string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providers[name]
}

// ExecutePrompt handles instruction adaptation before sending to the model
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, prompt string, systemPrompt string, opts llm.Options) (string, error) {
	provider, name, defaults, err := m.Resolve(agentType)
	if err != nil {
		return "", err
	}
	if opts.Model == "" {
		opts.Model = defaults.Model
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaults.Temperature
	}
	zerolog.Ctx(ctx).Debug().Str("agent", agentType).Str("provider", name).Msg("execute prompt")
	return provider.GenerateResponse(ctx, prompt, provider.AdaptInstructions(systemPrompt), opts)
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// Providers lists the registered provider names in sorted order.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
