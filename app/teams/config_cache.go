package teams

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type ConfigCache struct {
	teamsDir string
	cache    map[string]*Config
	mu       sync.RWMutex
}

func NewConfigCache(teamsDir string) *ConfigCache {
	return &ConfigCache{
		teamsDir: teamsDir,
		cache:    make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.teamsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.teamsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		teamName := strings.TrimSuffix(fileName, ".yml")

		config, err := cc.LoadConfig(teamName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Team configuration loaded", "team", teamName, "league", config.League,
			"channel", config.ChannelID, "enabled", config.Settings.Enabled, "rules", len(config.Rules))
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(teamName string) (*Config, error) {
	configFile := cc.getConfigFilePath(teamName)
	teamConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	teamConfig.Name = teamName

	if err := cc.validateConfig(teamConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[teamConfig.Name] = teamConfig

	return teamConfig, nil
}

func (cc *ConfigCache) GetConfig(teamName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	teamConfig, ok := cc.cache[teamName]
	if !ok {
		return nil, fmt.Errorf("team config with name '%s' not found", teamName)
	}
	return teamConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var teamConfig Config
	if err := yaml.Unmarshal(data, &teamConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if teamConfig.Settings.Idle.Title == "" {
		teamConfig.Settings.Idle.Title = "{team_name} Programming"
	}
	if teamConfig.Settings.Idle.Description == "" {
		teamConfig.Settings.Idle.Description = "Next game: {next_date} at {next_time} vs {next_opponent}"
	}

	return &teamConfig, nil
}

var validSlots = map[string]bool{
	SlotTitle:       true,
	SlotSubtitle:    true,
	SlotDescription: true,
}

var validOps = map[string]bool{
	OpEq:       true,
	OpNe:       true,
	OpGt:       true,
	OpGte:      true,
	OpLt:       true,
	OpLte:      true,
	OpContains: true,
}

func (cc *ConfigCache) validateConfig(teamConfig *Config) error {
	if teamConfig.TeamID == "" {
		return fmt.Errorf("team_id is required")
	}
	if teamConfig.League == "" {
		return fmt.Errorf("league is required")
	}
	if teamConfig.Sport == "" {
		return fmt.Errorf("sport is required")
	}
	if teamConfig.ChannelID == "" {
		return fmt.Errorf("channel_id is required")
	}
	if teamConfig.Settings.LookaheadDays < 0 {
		return fmt.Errorf("lookahead_days must be non-negative")
	}

	if teamConfig.Settings.ExcludeRegex != "" {
		if _, err := regexp.Compile("(?i)" + teamConfig.Settings.ExcludeRegex); err != nil {
			return fmt.Errorf("invalid exclude_regex: %w", err)
		}
	}

	for i, rule := range teamConfig.Rules {
		if !validSlots[rule.Slot] {
			return fmt.Errorf("invalid rule slot at index %d: %s", i, rule.Slot)
		}
		if rule.Template == "" {
			return fmt.Errorf("rule at index %d has an empty template", i)
		}
		if rule.Score < 0 {
			return fmt.Errorf("rule at index %d has a negative score", i)
		}
		if err := validateCondition(rule.When); err != nil {
			return fmt.Errorf("rule at index %d: %w", i, err)
		}
	}

	return nil
}

func validateCondition(cond Condition) error {
	if len(cond.All) > 0 && len(cond.Any) > 0 {
		return fmt.Errorf("condition cannot mix 'all' and 'any'")
	}
	for _, sub := range cond.All {
		if err := validateCondition(sub); err != nil {
			return err
		}
	}
	for _, sub := range cond.Any {
		if err := validateCondition(sub); err != nil {
			return err
		}
	}
	if cond.IsLeaf() && !validOps[cond.Op] {
		return fmt.Errorf("invalid condition operator: %s", cond.Op)
	}
	return nil
}

func (cc *ConfigCache) getConfigFilePath(teamName string) string {
	return filepath.Join(cc.teamsDir, teamName+".yml")
}
