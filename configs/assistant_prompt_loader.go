package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// AssistantPromptConfig describes the grid assistant persona (assistant_prompt.yaml).
type AssistantPromptConfig struct {
	System struct {
		Role     string `yaml:"role"`
		Version  string `yaml:"version"`
		Language string `yaml:"language"`
	} `yaml:"system"`

	Purpose string `yaml:"purpose"`

	ResponseGuidelines []struct {
		Priority  int    `yaml:"priority"`
		Condition string `yaml:"condition"`
		Action    string `yaml:"action"`
	} `yaml:"response_guidelines"`

	Tone struct {
		Style       string `yaml:"style"`
		Personality string `yaml:"personality"`
	} `yaml:"tone"`

	Constraints []string `yaml:"constraints"`

	SpecialCommands struct {
		Help struct {
			Trigger  []string `yaml:"trigger"`
			Response string   `yaml:"response"`
		} `yaml:"help"`
	} `yaml:"special_commands"`
}

var (
	promptMu     sync.Mutex
	cachedPrompt = map[string]*AssistantPromptConfig{}
)

// LoadAssistantPrompt reads and caches the persona file at path.
func LoadAssistantPrompt(path string) (*AssistantPromptConfig, error) {
	promptMu.Lock()
	defer promptMu.Unlock()

	if cfg, ok := cachedPrompt[path]; ok {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assistant prompt file: %w", err)
	}

	var cfg AssistantPromptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse assistant prompt YAML: %w", err)
	}

	cachedPrompt[path] = &cfg
	return &cfg, nil
}

// BuildSystemPrompt renders the persona as a plain-text preamble.
func (c *AssistantPromptConfig) BuildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are %s.\n", c.System.Role))
	if c.System.Language != "" {
		sb.WriteString(fmt.Sprintf("Always answer in %s.\n", c.System.Language))
	}
	if c.Purpose != "" {
		sb.WriteString(strings.TrimSpace(c.Purpose))
		sb.WriteString("\n")
	}

	if len(c.ResponseGuidelines) > 0 {
		sb.WriteString("\nGuidelines:\n")
		for _, g := range c.ResponseGuidelines {
			sb.WriteString(fmt.Sprintf("%d. %s -> %s\n", g.Priority, g.Condition, g.Action))
		}
	}

	if c.Tone.Style != "" {
		sb.WriteString(fmt.Sprintf("\nTone: %s, %s.\n", c.Tone.Style, c.Tone.Personality))
	}

	if len(c.Constraints) > 0 {
		sb.WriteString("\nConstraints:\n")
		for _, constraint := range c.Constraints {
			sb.WriteString(fmt.Sprintf("- %s\n", constraint))
		}
	}

	return sb.String()
}

// CheckSpecialCommand returns the canned reply when message triggers a special command.
func (c *AssistantPromptConfig) CheckSpecialCommand(message string) (bool, string) {
	lowerMsg := strings.ToLower(strings.TrimSpace(message))
	for _, trigger := range c.SpecialCommands.Help.Trigger {
		if lowerMsg == strings.ToLower(trigger) {
			return true, c.SpecialCommands.Help.Response
		}
	}
	return false, ""
}
