package agent

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controlbot/pkg/core/llm"
)

type fakeProvider struct {
	name string
	got  llm.Options
}

func (f *fakeProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, opts llm.Options) (string, error) {
	f.got = opts
	return f.name + ":" + systemPrompt, nil
}

func (f *fakeProvider) AdaptInstructions(raw string) string { return "[" + raw + "]" }

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
active_provider: deepseek
agents:
  report:
    provider: qwen
    model: qwen-plus
    temperature: 0.3
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", cfg.ActiveProvider)
	assert.Equal(t, "qwen", cfg.Agents[ReportAgent].Provider)

	missing, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultProvider, missing.ActiveProvider)
}

func TestResolveUsesAgentOverride(t *testing.T) {
	temp := 0.3
	m := NewManager(Config{
		ActiveProvider: "deepseek",
		Agents:         map[string]AgentConfig{ReportAgent: {Provider: "qwen", Model: "qwen-plus", Temperature: &temp}},
	})

	_, name, opts, err := m.Resolve(ReportAgent)
	require.NoError(t, err)
	assert.Equal(t, "qwen", name)
	assert.Equal(t, "qwen-plus", opts.Model)
	assert.Equal(t, 0.3, opts.Temperature)

	_, name, _, err = m.Resolve("other")
	require.NoError(t, err)
	assert.Equal(t, "deepseek", name)
}

func TestExecutePromptAdaptsInstructions(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "fake", Agents: map[string]AgentConfig{ReportAgent: {Model: "m1"}}})
	fake := &fakeProvider{name: "fake"}
	m.Register("fake", fake)

	out, err := m.ExecutePrompt(context.Background(), ReportAgent, "p", "sys", llm.Options{MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "fake:[sys]", out)
	assert.Equal(t, "m1", fake.got.Model)
	assert.Equal(t, 10, fake.got.MaxTokens)
}

func TestSetGlobalProvider(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "gemini"})
	require.NoError(t, m.SetGlobalProvider("openai"))
	assert.Equal(t, "openai", m.GetActiveProvider())
	assert.Error(t, m.SetGlobalProvider("nope"))
	assert.Equal(t, "openai", m.GetActiveProvider())
	assert.Contains(t, m.Providers(), "gemini-legacy")
}

func TestManagerConcurrentSwitch(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "gemini"})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = m.SetGlobalProvider("openai")
			} else {
				_ = m.SetGlobalProvider("gemini")
			}
		}(i)
		go func() {
			defer wg.Done()
			_, _, _, err := m.Resolve(ReportAgent)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Contains(t, []string{"openai", "gemini"}, m.GetActiveProvider())
}
