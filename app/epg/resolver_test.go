package epg

import (
	"errors"
	"testing"
	"time"

	"github.com/bittles/teamarr/app/sports"
)

func pistonsSnapshot() *sports.Snapshot {
	return &sports.Snapshot{
		Team: &sports.Team{
			ID:          "8",
			DisplayName: "Detroit Pistons",
			ShortName:   "Pistons",
			Location:    "Detroit",
			Mascot:      "Pistons",
			Record:      sports.Record{Wins: 12, Losses: 3},
			HomeRecord:  sports.Record{Wins: 7, Losses: 1},
			AwayRecord:  sports.Record{Wins: 5, Losses: 2},
			Streak:      sports.Streak{Kind: sports.StreakWin, Length: 5},
			Rank:        3,
			Venue:       sports.Venue{Name: "Little Caesars Arena", City: "Detroit", State: "MI"},
			Leaders: []sports.Leader{
				{Category: "points", PlayerName: "Cade Cunningham", DisplayValue: "26.1"},
			},
		},
		Opponents: map[string]*sports.Team{
			"1": {
				ID:          "1",
				DisplayName: "Atlanta Hawks",
				Record:      sports.Record{Wins: 8, Losses: 7},
				Streak:      sports.Streak{Kind: sports.StreakLoss, Length: 2},
			},
		},
		FetchedAt: time.Now(),
	}
}

func pistonsEvent() sports.Event {
	return sports.Event{
		ID:        "401705221",
		Name:      "Detroit Pistons at Atlanta Hawks",
		ShortName: "DET @ ATL",
		Start:     time.Date(2025, 11, 19, 0, 30, 0, 0, time.UTC),
		End:       time.Date(2025, 11, 19, 3, 0, 0, 0, time.UTC),
		HomeID:    "1",
		AwayID:    "8",
		HomeName:  "Atlanta Hawks",
		AwayName:  "Detroit Pistons",
		Status:    sports.GameScheduled,
		Venue:     &sports.Venue{Name: "State Farm Arena", City: "Atlanta", State: "GA"},
		Broadcast: "FDSDET",
	}
}

func pistonsPerspective() Perspective {
	return Perspective{
		TeamID:    "8",
		ChannelID: "detroit-pistons",
		League:    "nba",
		Sport:     "basketball",
	}
}

func TestResolveKnownVariables(t *testing.T) {
	resolver := NewResolver(time.UTC)

	ctx, err := resolver.Resolve(pistonsEvent(), pistonsPerspective(), pistonsSnapshot())
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	want := map[string]string{
		"team_name":       "Detroit Pistons",
		"win_streak":      "5",
		"opponent":        "Atlanta Hawks",
		"team_record":     "12-3",
		"opponent_record": "8-7",
		"home_team":       "Atlanta Hawks",
		"away_team":       "Detroit Pistons",
		"is_home":         "false",
		"home_away":       "away",
		"venue":           "State Farm Arena",
		"venue_city":      "Atlanta",
		"team_rank":       "#3",
		"rank":            "#3",
		"team_streak":     "W5",
		"opponent_streak": "L2",
		"team_win_pct":    ".800",
		"league":          "nba",
		"league_upper":    "NBA",
		"game_time":       "12:30 AM",
		"game_time_24":    "00:30",
		"game_day":        "Wednesday",
		"broadcast":       "FDSDET",
		"matchup_short":   "DET @ ATL",

		"team_points_leader":       "Cade Cunningham",
		"team_points_leader_value": "26.1",
	}
	for name, wantValue := range want {
		if got := ctx[name]; got != wantValue {
			t.Errorf("ctx[%q] = %q, want %q", name, got, wantValue)
		}
	}
}

func TestResolveEveryRegisteredVariablePresent(t *testing.T) {
	resolver := NewResolver(time.UTC)

	ctx, err := resolver.Resolve(pistonsEvent(), pistonsPerspective(), pistonsSnapshot())
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	for _, name := range VariableNames() {
		if _, ok := ctx[name]; !ok {
			t.Errorf("resolved context is missing registered variable %q", name)
		}
	}
}

func TestResolvePartialDataFallsBack(t *testing.T) {
	resolver := NewResolver(time.UTC)

	event := pistonsEvent()
	event.HomeName = ""
	event.Venue = nil

	ctx, err := resolver.Resolve(event, pistonsPerspective(), nil)
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	if got := ctx["home_team"]; got != "TBD" {
		t.Errorf("home_team = %q, want %q", got, "TBD")
	}
	if got := ctx["opponent"]; got != "TBD" {
		t.Errorf("opponent = %q, want %q", got, "TBD")
	}
	if got := ctx["team_record"]; got != "0-0" {
		t.Errorf("team_record = %q, want %q", got, "0-0")
	}
	if got := ctx["team_rank"]; got != "" {
		t.Errorf("team_rank = %q, want empty", got)
	}
	if got := ctx["venue"]; got != "TBD" {
		t.Errorf("venue = %q, want %q", got, "TBD")
	}
	// Team name degrades to the prettified channel slug.
	if got := ctx["team_name"]; got != "Detroit Pistons" {
		t.Errorf("team_name = %q, want %q", got, "Detroit Pistons")
	}
}

func TestResolveNoTeamsIsInvalid(t *testing.T) {
	resolver := NewResolver(time.UTC)

	event := pistonsEvent()
	event.HomeID = ""
	event.AwayID = ""

	if _, err := resolver.Resolve(event, pistonsPerspective(), nil); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("Resolve() error = %v, want ErrInvalidEvent", err)
	}
}

func TestResolveDisplayTimezone(t *testing.T) {
	detroit, err := time.LoadLocation("America/Detroit")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	resolver := NewResolver(detroit)

	ctx, err := resolver.Resolve(pistonsEvent(), pistonsPerspective(), pistonsSnapshot())
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	// 2025-11-19 00:30 UTC is 19:30 the previous evening in Detroit.
	if got := ctx["game_time"]; got != "7:30 PM" {
		t.Errorf("game_time = %q, want %q", got, "7:30 PM")
	}
	if got := ctx["game_date"]; got != "11/18" {
		t.Errorf("game_date = %q, want %q", got, "11/18")
	}
}

func TestResolveVenueFallsBackToHomeArena(t *testing.T) {
	resolver := NewResolver(time.UTC)

	event := pistonsEvent()
	event.Venue = nil
	event.HomeID = "8"
	event.AwayID = "1"
	event.HomeName = "Detroit Pistons"
	event.AwayName = "Atlanta Hawks"

	ctx, err := resolver.Resolve(event, pistonsPerspective(), pistonsSnapshot())
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	if got := ctx["venue"]; got != "Little Caesars Arena" {
		t.Errorf("venue = %q, want %q", got, "Little Caesars Arena")
	}
	if got := ctx["is_home"]; got != "true" {
		t.Errorf("is_home = %q, want %q", got, "true")
	}
}

func TestResolveNextGameVariables(t *testing.T) {
	resolver := NewResolver(time.UTC)

	snap := pistonsSnapshot()
	current := pistonsEvent()
	next := pistonsEvent()
	next.ID = "401705300"
	next.Start = current.Start.Add(48 * time.Hour)
	next.End = next.Start.Add(150 * time.Minute)
	next.HomeID = "8"
	next.AwayID = "2"
	next.HomeName = "Detroit Pistons"
	next.AwayName = "Boston Celtics"
	snap.Events = []sports.Event{current, next}

	ctx, err := resolver.Resolve(current, pistonsPerspective(), snap)
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	if got := ctx["next_opponent"]; got != "Boston Celtics" {
		t.Errorf("next_opponent = %q, want %q", got, "Boston Celtics")
	}
	if got := ctx["next_day"]; got != "Friday" {
		t.Errorf("next_day = %q, want %q", got, "Friday")
	}
}

func TestResolveIdle(t *testing.T) {
	resolver := NewResolver(time.UTC)

	next := pistonsEvent()
	day := time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC)

	ctx := resolver.ResolveIdle(day, &next, pistonsPerspective(), pistonsSnapshot())

	if got := ctx["team_name"]; got != "Detroit Pistons" {
		t.Errorf("team_name = %q, want %q", got, "Detroit Pistons")
	}
	if got := ctx["next_opponent"]; got != "Atlanta Hawks" {
		t.Errorf("next_opponent = %q, want %q", got, "Atlanta Hawks")
	}
	if got := ctx["next_date"]; got != "11/19" {
		t.Errorf("next_date = %q, want %q", got, "11/19")
	}
	if got := ctx["game_day"]; got != "Monday" {
		t.Errorf("game_day = %q, want %q", got, "Monday")
	}
}
