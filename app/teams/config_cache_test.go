package teams

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	content := `
team_id: "8"
league: "nba"
sport: "basketball"
channel_id: "detroit-pistons"

settings:
  enabled: true
  lookahead_days: 7
  exclude_final: true

templates:
  title: "{matchup}"
  description: "{team_name} take on the {opponent}."

rules:
  - slot: description
    priority: 10
    when:
      var: win_streak
      op: gte
      value: "3"
    template: "{team_name} looks to extend their {win_streak} game winning streak against {opponent}"
`

	err := os.WriteFile(filepath.Join(tempDir, "pistons.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	err = configCache.Run()
	if err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 team config, got %d", configCache.GetConfigCount())
	}

	teamConfig, err := configCache.GetConfig("pistons")
	if err != nil {
		t.Fatal(err)
	}

	if teamConfig.Name != "pistons" {
		t.Errorf("Expected name 'pistons', got '%s'", teamConfig.Name)
	}
	if teamConfig.TeamID != "8" {
		t.Errorf("Expected team_id '8', got '%s'", teamConfig.TeamID)
	}
	if teamConfig.ChannelID != "detroit-pistons" {
		t.Errorf("Expected channel_id 'detroit-pistons', got '%s'", teamConfig.ChannelID)
	}
	if teamConfig.Settings.LookaheadDays != 7 {
		t.Errorf("Expected lookahead of 7 days, got %d", teamConfig.Settings.LookaheadDays)
	}
	if len(teamConfig.Rules) != 1 {
		t.Fatalf("Expected 1 rule, got %d", len(teamConfig.Rules))
	}
	if teamConfig.Rules[0].Slot != SlotDescription {
		t.Errorf("Expected rule slot 'description', got '%s'", teamConfig.Rules[0].Slot)
	}
	if teamConfig.Rules[0].When.Op != OpGte {
		t.Errorf("Expected rule op 'gte', got '%s'", teamConfig.Rules[0].When.Op)
	}
}

func TestConfigCacheIdleDefaults(t *testing.T) {
	tempDir := t.TempDir()

	content := `
team_id: "10"
league: "nhl"
sport: "hockey"
channel_id: "detroit-red-wings"

settings:
  enabled: true
  idle:
    enabled: true
`

	err := os.WriteFile(filepath.Join(tempDir, "wings.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	teamConfig, err := configCache.GetConfig("wings")
	if err != nil {
		t.Fatal(err)
	}

	if teamConfig.Settings.Idle.Title != "{team_name} Programming" {
		t.Errorf("Expected default idle title, got '%s'", teamConfig.Settings.Idle.Title)
	}
	if !strings.Contains(teamConfig.Settings.Idle.Description, "{next_opponent}") {
		t.Errorf("Expected default idle description to reference {next_opponent}, got '%s'",
			teamConfig.Settings.Idle.Description)
	}
}

func TestConfigCacheRejectsInvalidRuleSlot(t *testing.T) {
	tempDir := t.TempDir()

	content := `
team_id: "8"
league: "nba"
sport: "basketball"
channel_id: "detroit-pistons"

rules:
  - slot: headline
    template: "bad slot"
`

	err := os.WriteFile(filepath.Join(tempDir, "bad.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	err = configCache.Run()
	if err == nil {
		t.Fatal("Expected error for invalid rule slot")
	}
	if !strings.Contains(err.Error(), "invalid rule slot") {
		t.Errorf("Expected invalid slot error, got: %v", err)
	}
}

func TestConfigCacheRejectsInvalidOperator(t *testing.T) {
	tempDir := t.TempDir()

	content := `
team_id: "8"
league: "nba"
sport: "basketball"
channel_id: "detroit-pistons"

rules:
  - slot: title
    when:
      var: win_streak
      op: between
      value: "3"
    template: "bad op"
`

	err := os.WriteFile(filepath.Join(tempDir, "bad.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err == nil {
		t.Fatal("Expected error for invalid condition operator")
	}
}

func TestConfigCacheRejectsInvalidExcludeRegex(t *testing.T) {
	tempDir := t.TempDir()

	content := `
team_id: "8"
league: "nba"
sport: "basketball"
channel_id: "detroit-pistons"

settings:
  enabled: true
  exclude_regex: "[unterminated"
`

	err := os.WriteFile(filepath.Join(tempDir, "bad.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err == nil {
		t.Fatal("Expected error for invalid exclude_regex")
	}
}

func TestConfigCacheMissingRequiredFields(t *testing.T) {
	tempDir := t.TempDir()

	content := `
league: "nba"
sport: "basketball"
channel_id: "detroit-pistons"
`

	err := os.WriteFile(filepath.Join(tempDir, "bad.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	err = configCache.Run()
	if err == nil {
		t.Fatal("Expected error for missing team_id")
	}
}

func TestConfigCacheGetEnabledConfigs(t *testing.T) {
	tempDir := t.TempDir()

	enabled := `
team_id: "8"
league: "nba"
sport: "basketball"
channel_id: "detroit-pistons"
settings:
  enabled: true
`
	disabled := `
team_id: "14"
league: "nba"
sport: "basketball"
channel_id: "atlanta-hawks"
settings:
  enabled: false
`

	if err := os.WriteFile(filepath.Join(tempDir, "pistons.yml"), []byte(enabled), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "hawks.yml"), []byte(disabled), 0644); err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 2 {
		t.Errorf("Expected 2 configs, got %d", configCache.GetConfigCount())
	}

	enabledConfigs := configCache.GetEnabledConfigs()
	if len(enabledConfigs) != 1 {
		t.Fatalf("Expected 1 enabled config, got %d", len(enabledConfigs))
	}
	if _, ok := enabledConfigs["pistons"]; !ok {
		t.Error("Expected 'pistons' to be enabled")
	}
}

func TestSlotRulesAndDefaults(t *testing.T) {
	config := &Config{
		Templates: ConfigTemplates{
			Title: "{matchup}",
		},
		Rules: []Rule{
			{Slot: SlotTitle, Template: "a"},
			{Slot: SlotDescription, Template: "b"},
			{Slot: SlotTitle, Template: "c"},
		},
	}

	titleRules := config.SlotRules(SlotTitle)
	if len(titleRules) != 2 {
		t.Fatalf("Expected 2 title rules, got %d", len(titleRules))
	}
	if titleRules[0].Template != "a" || titleRules[1].Template != "c" {
		t.Error("Expected declaration order to be preserved")
	}

	if config.DefaultTemplate(SlotTitle) != "{matchup}" {
		t.Errorf("Expected authored title template, got '%s'", config.DefaultTemplate(SlotTitle))
	}
	if config.DefaultTemplate(SlotDescription) == "" {
		t.Error("Expected built-in description fallback to be non-empty")
	}
}
