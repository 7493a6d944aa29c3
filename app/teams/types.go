package teams

// Team configuration types

type Config struct {
	Name      string          // Derived from filename (without .yml extension)
	TeamID    string          `yaml:"team_id"`   // Upstream (ESPN) numeric team id
	League    string          `yaml:"league"`    // e.g. nba, nfl, nhl
	Sport     string          `yaml:"sport"`     // e.g. basketball, football, hockey
	ChannelID string          `yaml:"channel_id"`
	Settings  ConfigSettings  `yaml:"settings"`
	Templates ConfigTemplates `yaml:"templates"`
	Rules     []Rule          `yaml:"rules"`
}

type ConfigSettings struct {
	Enabled       bool       `yaml:"enabled"`
	LookaheadDays int        `yaml:"lookahead_days"` // 0 means use the global default
	ExcludeFinal  bool       `yaml:"exclude_final"`  // drop games that have gone final
	ExcludeRegex  string     `yaml:"exclude_regex"`  // additional stream exclusion pattern
	Idle          IdleConfig `yaml:"idle"`
}

// IdleConfig controls filler programming for days without a scheduled game.
type IdleConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// ConfigTemplates holds the default (catch-all) template per description slot.
type ConfigTemplates struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Description string `yaml:"description"`
}

// Description slots addressable by condition rules.
const (
	SlotTitle       = "title"
	SlotSubtitle    = "subtitle"
	SlotDescription = "description"
)

// Rule is one conditional-description rule. Rules for a slot are evaluated in
// ascending priority order; the first satisfied rule wins unless any satisfied
// rule carries a score, in which case the highest score wins (declaration
// order breaks ties).
type Rule struct {
	Slot     string    `yaml:"slot"`
	Priority int       `yaml:"priority"`
	Score    int       `yaml:"score"` // 0 means unscored
	When     Condition `yaml:"when"`
	Template string    `yaml:"template"`
}

// Condition is a closed predicate variant: either a leaf comparison over one
// template variable, or a composite of nested conditions. Exactly one of
// All/Any/leaf form is used; an empty condition is always true.
type Condition struct {
	Var   string      `yaml:"var"`
	Op    string      `yaml:"op"`
	Value string      `yaml:"value"`
	All   []Condition `yaml:"all"`
	Any   []Condition `yaml:"any"`
}

// Comparison operators accepted in leaf conditions.
const (
	OpEq       = "eq"
	OpNe       = "ne"
	OpGt       = "gt"
	OpGte      = "gte"
	OpLt       = "lt"
	OpLte      = "lte"
	OpContains = "contains"
)

func (c Condition) IsLeaf() bool {
	return len(c.All) == 0 && len(c.Any) == 0 && c.Var != ""
}

func (c Condition) IsEmpty() bool {
	return len(c.All) == 0 && len(c.Any) == 0 && c.Var == ""
}

// SlotRules returns the rules declared for one slot, preserving declaration order.
func (c *Config) SlotRules(slot string) []Rule {
	var rules []Rule
	for _, r := range c.Rules {
		if r.Slot == slot {
			rules = append(rules, r)
		}
	}
	return rules
}

// DefaultTemplate returns the authored catch-all template for a slot, or the
// built-in fallback when the team config leaves it empty.
func (c *Config) DefaultTemplate(slot string) string {
	switch slot {
	case SlotTitle:
		if c.Templates.Title != "" {
			return c.Templates.Title
		}
		return "{away_team} at {home_team}"
	case SlotSubtitle:
		return c.Templates.Subtitle
	case SlotDescription:
		if c.Templates.Description != "" {
			return c.Templates.Description
		}
		return "{team_name} take on the {opponent} at {venue}."
	default:
		return ""
	}
}
