package sports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const teamResponse = `{
  "team": {
    "id": "8",
    "displayName": "Detroit Pistons",
    "shortDisplayName": "Pistons",
    "abbreviation": "DET",
    "location": "Detroit",
    "name": "Pistons",
    "standingSummary": "3rd in Central Division",
    "record": {
      "items": [
        {
          "type": "total",
          "summary": "12-7",
          "stats": [
            {"name": "wins", "value": 12},
            {"name": "losses", "value": 7},
            {"name": "streak", "value": 5}
          ]
        },
        {"type": "home", "summary": "8-2"},
        {"type": "road", "summary": "4-5"}
      ]
    },
    "venue": {
      "fullName": "Little Caesars Arena",
      "address": {"city": "Detroit", "state": "MI"}
    },
    "leaders": [
      {
        "name": "points",
        "leaders": [
          {"displayValue": "31.2", "athlete": {"displayName": "Cade Cunningham"}}
        ]
      }
    ]
  }
}`

const scheduleResponse = `{
  "events": [
    {
      "id": "401704321",
      "name": "Detroit Pistons at Atlanta Hawks",
      "shortName": "DET @ ATL",
      "date": "2025-11-19T00:30Z",
      "competitions": [
        {
          "competitors": [
            {"id": "1", "homeAway": "home", "team": {"id": "1", "displayName": "Atlanta Hawks"}},
            {"id": "8", "homeAway": "away", "team": {"id": "8", "displayName": "Detroit Pistons"}}
          ],
          "venue": {"fullName": "State Farm Arena", "address": {"city": "Atlanta", "state": "GA"}},
          "status": {"type": {"name": "STATUS_SCHEDULED", "completed": false}},
          "broadcasts": [{"names": ["NBA TV"]}]
        }
      ]
    },
    {
      "id": "401704400",
      "name": "Detroit Pistons vs Chicago Bulls",
      "shortName": "CHI @ DET",
      "date": "2030-01-01T00:00Z",
      "competitions": []
    }
  ]
}`

func newTestClient(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/basketball/nba/teams/8":
			w.Write([]byte(teamResponse))
		case "/basketball/nba/teams/8/schedule":
			w.Write([]byte(scheduleResponse))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	client := NewClient(server.Client(), server.URL, "Teamarr-Test/1.0", 5*time.Second)
	return client, server
}

func TestGetTeam(t *testing.T) {
	client, server := newTestClient(t)
	defer server.Close()

	team, err := client.GetTeam(context.Background(), "basketball", "nba", "8")
	if err != nil {
		t.Fatal(err)
	}

	if team.DisplayName != "Detroit Pistons" {
		t.Errorf("Expected 'Detroit Pistons', got '%s'", team.DisplayName)
	}
	if team.Record.Wins != 12 || team.Record.Losses != 7 {
		t.Errorf("Expected record 12-7, got %s", team.Record.Summary())
	}
	if team.Streak.Kind != StreakWin || team.Streak.Length != 5 {
		t.Errorf("Expected 5 game win streak, got %v %d", team.Streak.Kind, team.Streak.Length)
	}
	if team.HomeRecord.Summary() != "8-2" {
		t.Errorf("Expected home record 8-2, got %s", team.HomeRecord.Summary())
	}
	if team.Venue.Name != "Little Caesars Arena" {
		t.Errorf("Expected venue 'Little Caesars Arena', got '%s'", team.Venue.Name)
	}
	if len(team.Leaders) != 1 || team.Leaders[0].PlayerName != "Cade Cunningham" {
		t.Errorf("Expected points leader Cade Cunningham, got %+v", team.Leaders)
	}
	if team.League != "nba" || team.Sport != "basketball" {
		t.Errorf("Expected league/sport to be set, got %s/%s", team.League, team.Sport)
	}
}

func TestGetScheduleWindow(t *testing.T) {
	client, server := newTestClient(t)
	defer server.Close()

	from := time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	events, outsideWindow, err := client.GetSchedule(context.Background(), "basketball", "nba", "8", from, to)
	if err != nil {
		t.Fatal(err)
	}

	// The 2030 event is outside the window.
	if len(events) != 1 {
		t.Fatalf("Expected 1 event in window, got %d", len(events))
	}
	if outsideWindow != 1 {
		t.Errorf("Expected 1 event counted outside window, got %d", outsideWindow)
	}

	event := events[0]
	if event.HomeID != "1" || event.AwayID != "8" {
		t.Errorf("Expected home 1 / away 8, got %s/%s", event.HomeID, event.AwayID)
	}
	wantStart := time.Date(2025, 11, 19, 0, 30, 0, 0, time.UTC)
	if !event.Start.Equal(wantStart) {
		t.Errorf("Expected start %v, got %v", wantStart, event.Start)
	}
	if !event.End.After(event.Start) {
		t.Error("Expected derived end to be after start")
	}
	if event.Status != GameScheduled {
		t.Errorf("Expected scheduled status, got %s", event.Status)
	}
	if event.Venue == nil || event.Venue.Name != "State Farm Arena" {
		t.Errorf("Expected venue override 'State Farm Arena', got %+v", event.Venue)
	}
	if event.Broadcast != "NBA TV" {
		t.Errorf("Expected broadcast 'NBA TV', got '%s'", event.Broadcast)
	}
}

func TestGetTeamHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "Teamarr-Test/1.0", 5*time.Second)

	if _, err := client.GetTeam(context.Background(), "basketball", "nba", "8"); err == nil {
		t.Fatal("Expected error for HTTP 500")
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "Teamarr-Test/1.0", 20*time.Millisecond)

	if _, err := client.GetTeam(context.Background(), "basketball", "nba", "8"); err == nil {
		t.Fatal("Expected timeout error")
	}
}

func TestRecordSummary(t *testing.T) {
	if got := (Record{Wins: 12, Losses: 7}).Summary(); got != "12-7" {
		t.Errorf("Expected '12-7', got %q", got)
	}
	if got := (Record{Wins: 10, Losses: 5, Ties: 2}).Summary(); got != "10-5-2" {
		t.Errorf("Expected '10-5-2', got %q", got)
	}
}
