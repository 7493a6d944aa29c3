package sports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client talks to the upstream schedule/statistics API (ESPN site API shape).
// Every payload field is treated as optionally absent; missing data surfaces
// as zero values, never as an error.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration
}

func NewClient(httpClient *http.Client, baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// GetTeam fetches one team's current record, streak, rank and venue.
func (c *Client) GetTeam(ctx context.Context, sport, league, teamID string) (*Team, error) {
	url := fmt.Sprintf("%s/%s/%s/teams/%s", c.baseURL, sport, league, teamID)

	var payload struct {
		Team teamPayload `json:"team"`
	}
	if err := c.fetchJSON(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch team %s/%s/%s: %w", sport, league, teamID, err)
	}

	team := payload.Team.toTeam()
	team.League = league
	team.Sport = sport
	return team, nil
}

// GetSchedule fetches a team's scheduled events inside [from, to). The second
// return value counts well-formed events dropped for falling outside the
// window, so run statistics can report them.
func (c *Client) GetSchedule(ctx context.Context, sport, league, teamID string, from, to time.Time) ([]Event, int, error) {
	url := fmt.Sprintf("%s/%s/%s/teams/%s/schedule", c.baseURL, sport, league, teamID)

	var payload struct {
		Events []eventPayload `json:"events"`
	}
	if err := c.fetchJSON(ctx, url, &payload); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch schedule %s/%s/%s: %w", sport, league, teamID, err)
	}

	duration := DefaultGameDuration(sport)
	events := make([]Event, 0, len(payload.Events))
	outsideWindow := 0
	for _, raw := range payload.Events {
		event, ok := raw.toEvent(duration)
		if !ok {
			slog.Debug("Skipping malformed schedule entry", "team", teamID, "event_id", raw.ID)
			continue
		}
		if event.Start.Before(from) || !event.Start.Before(to) {
			outsideWindow++
			continue
		}
		events = append(events, event)
	}

	return events, outsideWindow, nil
}

// BuildSnapshot assembles the read-only upstream bundle one generation unit
// works from: the team itself, its lookahead schedule, and opponent records.
// Opponent fetch failures degrade to missing data rather than failing the unit.
func (c *Client) BuildSnapshot(ctx context.Context, sport, league, teamID string, from, to time.Time) (*Snapshot, error) {
	team, err := c.GetTeam(ctx, sport, league, teamID)
	if err != nil {
		return nil, err
	}

	events, outsideWindow, err := c.GetSchedule(ctx, sport, league, teamID, from, to)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Team:          team,
		Opponents:     make(map[string]*Team),
		Events:        events,
		OutsideWindow: outsideWindow,
		FetchedAt:     time.Now().UTC(),
	}

	for _, event := range events {
		opponentID := event.AwayID
		if opponentID == teamID {
			opponentID = event.HomeID
		}
		if opponentID == "" || snapshot.Opponents[opponentID] != nil {
			continue
		}

		opponent, err := c.GetTeam(ctx, sport, league, opponentID)
		if err != nil {
			slog.Warn("Failed to fetch opponent record", "team", teamID, "opponent", opponentID, "error", err)
			continue
		}
		snapshot.Opponents[opponentID] = opponent
	}

	return snapshot, nil
}

func (c *Client) fetchJSON(ctx context.Context, url string, out interface{}) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Wire payloads. Only the consumed subset of the upstream schema is modeled.

type teamPayload struct {
	ID               string `json:"id"`
	DisplayName      string `json:"displayName"`
	ShortDisplayName string `json:"shortDisplayName"`
	Abbreviation     string `json:"abbreviation"`
	Location         string `json:"location"`
	Name             string `json:"name"` // mascot
	StandingSummary  string `json:"standingSummary"`
	Rank             int    `json:"rank"`
	Record           struct {
		Items []recordItemPayload `json:"items"`
	} `json:"record"`
	Venue struct {
		FullName string `json:"fullName"`
		Address  struct {
			City  string `json:"city"`
			State string `json:"state"`
		} `json:"address"`
	} `json:"venue"`
	Leaders []struct {
		Name    string `json:"name"`
		Leaders []struct {
			DisplayValue string `json:"displayValue"`
			Athlete      struct {
				DisplayName string `json:"displayName"`
			} `json:"athlete"`
		} `json:"leaders"`
	} `json:"leaders"`
}

type recordItemPayload struct {
	Type    string `json:"type"` // total, home, road, lasttengames
	Summary string `json:"summary"`
	Stats   []struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	} `json:"stats"`
}

func (p teamPayload) toTeam() *Team {
	team := &Team{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		ShortName:    p.ShortDisplayName,
		Abbreviation: p.Abbreviation,
		Location:     p.Location,
		Mascot:       p.Name,
		Standing:     p.StandingSummary,
		Rank:         p.Rank,
		Venue: Venue{
			Name:  p.Venue.FullName,
			City:  p.Venue.Address.City,
			State: p.Venue.Address.State,
		},
	}

	for _, item := range p.Record.Items {
		record, streak := item.toRecord()
		switch item.Type {
		case "total":
			team.Record = record
			team.Streak = streak
			for _, stat := range item.Stats {
				switch stat.Name {
				case "avgPointsFor":
					team.PointsFor = stat.Value
				case "avgPointsAgainst":
					team.PointsAgainst = stat.Value
				}
			}
		case "home":
			team.HomeRecord = record
		case "road":
			team.AwayRecord = record
		case "vsconf":
			team.ConferenceRecord = record
		case "vsdiv":
			team.DivisionRecord = record
		case "lasttengames":
			team.LastTen = record
		}
	}

	for _, category := range p.Leaders {
		if len(category.Leaders) == 0 {
			continue
		}
		team.Leaders = append(team.Leaders, Leader{
			Category:     category.Name,
			PlayerName:   category.Leaders[0].Athlete.DisplayName,
			DisplayValue: category.Leaders[0].DisplayValue,
		})
	}

	return team
}

func (item recordItemPayload) toRecord() (Record, Streak) {
	var record Record
	var streak Streak

	for _, stat := range item.Stats {
		switch stat.Name {
		case "wins":
			record.Wins = int(stat.Value)
		case "losses":
			record.Losses = int(stat.Value)
		case "ties", "OTLosses":
			record.Ties += int(stat.Value)
		case "streak":
			// Positive values are win streaks, negative loss streaks.
			if stat.Value > 0 {
				streak = Streak{Kind: StreakWin, Length: int(stat.Value)}
			} else if stat.Value < 0 {
				streak = Streak{Kind: StreakLoss, Length: int(-stat.Value)}
			}
		}
	}

	if record.Wins == 0 && record.Losses == 0 && item.Summary != "" {
		record = parseRecordSummary(item.Summary)
	}

	return record, streak
}

// parseRecordSummary parses "W-L" or "W-L-T" summaries.
func parseRecordSummary(summary string) Record {
	var record Record
	parts := strings.Split(summary, "-")
	if len(parts) >= 2 {
		record.Wins, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
		record.Losses, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	if len(parts) >= 3 {
		record.Ties, _ = strconv.Atoi(strings.TrimSpace(parts[2]))
	}
	return record
}

type eventPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ShortName    string `json:"shortName"`
	Date         string `json:"date"`
	Competitions []struct {
		Competitors []struct {
			ID       string `json:"id"`
			HomeAway string `json:"homeAway"`
			Score    struct {
				Value        float64 `json:"value"`
				DisplayValue string  `json:"displayValue"`
			} `json:"score"`
			Team struct {
				ID          string `json:"id"`
				DisplayName string `json:"displayName"`
			} `json:"team"`
		} `json:"competitors"`
		Venue struct {
			FullName string `json:"fullName"`
			Address  struct {
				City  string `json:"city"`
				State string `json:"state"`
			} `json:"address"`
		} `json:"venue"`
		Status struct {
			Type struct {
				Name      string `json:"name"`
				Completed bool   `json:"completed"`
			} `json:"type"`
		} `json:"status"`
		Broadcasts []struct {
			Names []string `json:"names"`
		} `json:"broadcasts"`
		Notes []struct {
			Headline string `json:"headline"`
		} `json:"notes"`
		ConferenceCompetition bool `json:"conferenceCompetition"`
		Series                struct {
			Summary string `json:"summary"`
		} `json:"series"`
	} `json:"competitions"`
}

// upstream date format, e.g. "2025-11-19T00:30Z"
const eventDateLayout = "2006-01-02T15:04Z"

func (p eventPayload) toEvent(duration time.Duration) (Event, bool) {
	start, err := time.Parse(eventDateLayout, p.Date)
	if err != nil {
		if start, err = time.Parse(time.RFC3339, p.Date); err != nil {
			return Event{}, false
		}
	}
	start = start.UTC()

	event := Event{
		ID:        p.ID,
		Name:      p.Name,
		ShortName: p.ShortName,
		Start:     start,
		End:       start.Add(duration),
		Status:    GameScheduled,
	}

	if len(p.Competitions) == 0 {
		return event, true
	}
	competition := p.Competitions[0]

	for _, competitor := range competition.Competitors {
		id := competitor.ID
		if id == "" {
			id = competitor.Team.ID
		}
		score := competitor.Score.Value
		hasScore := competitor.Score.DisplayValue != ""

		switch competitor.HomeAway {
		case "home":
			event.HomeID = id
			event.HomeName = competitor.Team.DisplayName
			if hasScore {
				s := int(score)
				event.HomeScore = &s
			}
		case "away":
			event.AwayID = id
			event.AwayName = competitor.Team.DisplayName
			if hasScore {
				s := int(score)
				event.AwayScore = &s
			}
		}
	}

	if competition.Venue.FullName != "" {
		event.Venue = &Venue{
			Name:  competition.Venue.FullName,
			City:  competition.Venue.Address.City,
			State: competition.Venue.Address.State,
		}
	}

	event.Status = mapStatus(competition.Status.Type.Name, competition.Status.Type.Completed)
	event.DivisionGame = competition.ConferenceCompetition
	event.SeriesSummary = competition.Series.Summary

	if len(competition.Broadcasts) > 0 && len(competition.Broadcasts[0].Names) > 0 {
		event.Broadcast = competition.Broadcasts[0].Names[0]
	}
	for _, note := range competition.Notes {
		if strings.Contains(strings.ToLower(note.Headline), "rivalry") {
			event.Rivalry = true
		}
	}

	return event, true
}

func mapStatus(name string, completed bool) GameStatus {
	if completed {
		return GameFinal
	}
	switch name {
	case "STATUS_IN_PROGRESS", "STATUS_HALFTIME", "STATUS_END_PERIOD":
		return GameLive
	case "STATUS_FINAL":
		return GameFinal
	case "STATUS_POSTPONED":
		return GamePostponed
	case "STATUS_CANCELED":
		return GameCanceled
	default:
		return GameScheduled
	}
}
