package sports

import (
	"testing"
)

func TestHasGameIndicator(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"NBA 01: Lakers vs Celtics", true},
		{"NFL 02: Chiefs @ Ravens", true},
		{"Patriots at Bills", true},
		{"Arsenal v Chelsea", true},
		{"Lakers vs. Celtics", true},
		{"NFL 03 - ", false},
		{"RedZone", false},
		{"NFL Network", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := HasGameIndicator(tt.name); got != tt.expected {
			t.Errorf("HasGameIndicator(%q) = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestFilterGames(t *testing.T) {
	events := []Event{
		{ID: "1", Name: "Lakers vs Celtics"},
		{ID: "2", Name: "NBA 02 - "},
		{ID: "3", Name: "RedZone"},
	}

	result := FilterGames(events, "")

	if len(result.Games) != 1 {
		t.Errorf("Expected 1 game stream, got %d", len(result.Games))
	}
	if len(result.Filtered) != 2 {
		t.Errorf("Expected 2 filtered streams, got %d", len(result.Filtered))
	}
	if result.Reasons[ReasonNoGameIndicator] != 2 {
		t.Errorf("Expected 2 no-indicator reasons, got %d", result.Reasons[ReasonNoGameIndicator])
	}
}

func TestFilterGamesExcludeRegex(t *testing.T) {
	events := []Event{
		{ID: "1", Name: "Lakers vs Celtics"},
		{ID: "2", Name: "Lakers vs Celtics (Replay)"},
	}

	result := FilterGames(events, `replay`)

	if len(result.Games) != 1 {
		t.Fatalf("Expected 1 game, got %d", len(result.Games))
	}
	if result.Games[0].ID != "1" {
		t.Errorf("Expected event 1 to survive, got %s", result.Games[0].ID)
	}
	if result.Reasons[ReasonExcludeRegex] != 1 {
		t.Errorf("Expected 1 exclude-regex reason, got %d", result.Reasons[ReasonExcludeRegex])
	}
}

func TestFilterGamesInvalidRegexIgnored(t *testing.T) {
	events := []Event{
		{ID: "1", Name: "Lakers vs Celtics"},
	}

	result := FilterGames(events, "[unterminated")

	if len(result.Games) != 1 {
		t.Errorf("Invalid exclusion pattern should be ignored, got %d games", len(result.Games))
	}
}

func TestFilterSummary(t *testing.T) {
	if got := FilterSummary(10, 10, 8); got != "8/10 matched" {
		t.Errorf("Expected '8/10 matched', got %q", got)
	}
	if got := FilterSummary(10, 5, 4); got != "4/5 matched (5 non-game filtered)" {
		t.Errorf("Expected '4/5 matched (5 non-game filtered)', got %q", got)
	}
}

func TestReasonDisplayText(t *testing.T) {
	if got := ReasonDisplayText(ReasonGamePast); got != "Event already passed" {
		t.Errorf("Unexpected display text: %q", got)
	}
	if got := ReasonDisplayText("custom_reason"); got != "custom_reason" {
		t.Errorf("Unknown reasons should pass through, got %q", got)
	}
}
