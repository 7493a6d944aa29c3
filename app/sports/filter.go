package sports

import (
	"fmt"
	"regexp"
)

// Filter/match reason taxonomy. Single source of truth for statistics,
// logging and run summaries.
const (
	ReasonNoGameIndicator  = "no_game_indicator"
	ReasonExcludeRegex     = "exclude_regex_matched"
	ReasonGamePast         = "game_past"
	ReasonGameFinal        = "game_final_excluded"
	ReasonOutsideLookahead = "outside_lookahead"
)

var reasonDisplayText = map[string]string{
	ReasonNoGameIndicator:  "No game indicator (vs, @, at)",
	ReasonExcludeRegex:     "Matched exclusion pattern",
	ReasonGamePast:         "Event already passed",
	ReasonGameFinal:        "Event is final (excluded)",
	ReasonOutsideLookahead: "Outside lookahead range",
}

// ReasonDisplayText returns user-facing text for a filter reason.
func ReasonDisplayText(reason string) string {
	if text, ok := reasonDisplayText[reason]; ok {
		return text
	}
	return reason
}

// Matches: vs, vs., at (as word), v (as word), @
var gameIndicatorPattern = regexp.MustCompile(`(?i)\b(vs\.?|at|v)\b|@`)

// HasGameIndicator reports whether an event name looks like an actual game
// matchup rather than placeholder or non-game programming.
func HasGameIndicator(name string) bool {
	return gameIndicatorPattern.MatchString(name)
}

// FilterResult partitions events into games and filtered-out entries, with
// per-reason counts for run statistics.
type FilterResult struct {
	Games    []Event
	Filtered []Event
	Reasons  map[string]int
}

// FilterGames keeps events that carry a game indicator and do not match the
// optional exclusion pattern. An invalid pattern is ignored rather than
// blocking the unit.
func FilterGames(events []Event, excludeRegex string) FilterResult {
	result := FilterResult{Reasons: make(map[string]int)}

	var excludePattern *regexp.Regexp
	if excludeRegex != "" {
		if p, err := regexp.Compile("(?i)" + excludeRegex); err == nil {
			excludePattern = p
		}
	}

	for _, event := range events {
		if !HasGameIndicator(event.Name) && !HasGameIndicator(event.ShortName) {
			result.Filtered = append(result.Filtered, event)
			result.Reasons[ReasonNoGameIndicator]++
			continue
		}

		if excludePattern != nil && excludePattern.MatchString(event.Name) {
			result.Filtered = append(result.Filtered, event)
			result.Reasons[ReasonExcludeRegex]++
			continue
		}

		result.Games = append(result.Games, event)
	}

	return result
}

// FilterSummary renders results like "8/10 matched (5 non-game filtered)".
func FilterSummary(totalCount, gameCount, matchedCount int) string {
	filteredCount := totalCount - gameCount
	if filteredCount > 0 {
		return fmt.Sprintf("%d/%d matched (%d non-game filtered)", matchedCount, gameCount, filteredCount)
	}
	return fmt.Sprintf("%d/%d matched", matchedCount, gameCount)
}
