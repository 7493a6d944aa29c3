package sports

import (
	"fmt"
	"time"
)

type StreakKind string

const (
	StreakWin  StreakKind = "win"
	StreakLoss StreakKind = "loss"
	StreakNone StreakKind = ""
)

// Streak is a team's active run of consecutive results. Length is never negative.
type Streak struct {
	Kind   StreakKind
	Length int
}

// Record is a win/loss record. Summary renders as "W-L" (or "W-L-T" with ties).
type Record struct {
	Wins   int
	Losses int
	Ties   int
}

func (r Record) Summary() string {
	if r.Ties > 0 {
		return fmt.Sprintf("%d-%d-%d", r.Wins, r.Losses, r.Ties)
	}
	return fmt.Sprintf("%d-%d", r.Wins, r.Losses)
}

func (r Record) Games() int {
	return r.Wins + r.Losses + r.Ties
}

type Venue struct {
	Name  string
	City  string
	State string
}

// Leader is a statistical category leader for a team.
type Leader struct {
	Category     string // e.g. "points", "rebounds", "assists"
	PlayerName   string
	DisplayValue string
}

// Team is a snapshot of one team's upstream record and statistics. Any field
// may be zero-valued when the upstream payload omits it.
type Team struct {
	ID               string
	DisplayName      string
	ShortName        string
	Abbreviation     string
	Location         string
	Mascot           string
	League           string
	Sport            string
	Record           Record
	HomeRecord       Record
	AwayRecord       Record
	ConferenceRecord Record
	DivisionRecord   Record
	LastTen          Record
	Streak           Streak
	PointsFor        float64 // average points scored per game
	PointsAgainst    float64 // average points allowed per game
	Rank             int     // 0 means unranked
	Standing         string
	Venue            Venue
	Leaders          []Leader
}

type GameStatus string

const (
	GameScheduled GameStatus = "scheduled"
	GameLive      GameStatus = "live"
	GameFinal     GameStatus = "final"
	GamePostponed GameStatus = "postponed"
	GameCanceled  GameStatus = "canceled"
)

// Event is one scheduled game. Start/End are UTC instants; End is derived from
// the sport's default game duration when the upstream feed has no end time.
type Event struct {
	ID            string
	Name          string // e.g. "Detroit Pistons at Atlanta Hawks"
	ShortName     string // e.g. "DET @ ATL"
	Start         time.Time
	End           time.Time
	HomeID        string
	AwayID        string
	HomeName      string
	AwayName      string
	HomeScore     *int
	AwayScore     *int
	Status        GameStatus
	Venue         *Venue // nil means use the home team's venue
	Broadcast     string
	Rivalry       bool
	DivisionGame  bool
	SeriesSummary string // season series between the two teams, e.g. "2-1"
}

// Snapshot is the read-only bundle of upstream data one generation unit works
// from. It may lag the live source; the resolver treats every field as optional.
type Snapshot struct {
	Team          *Team
	Opponents     map[string]*Team // keyed by upstream team id
	Events        []Event
	OutsideWindow int // well-formed events dropped for falling outside the window
	FetchedAt     time.Time
}

// Opponent returns the cached opponent record for an event, or nil.
func (s *Snapshot) Opponent(e Event, perspectiveTeamID string) *Team {
	if s == nil || s.Opponents == nil {
		return nil
	}
	if e.HomeID == perspectiveTeamID {
		return s.Opponents[e.AwayID]
	}
	return s.Opponents[e.HomeID]
}

// DefaultGameDuration returns the typical broadcast block for a sport, used to
// derive programme stop times.
func DefaultGameDuration(sport string) time.Duration {
	switch sport {
	case "football":
		return 3*time.Hour + 30*time.Minute
	case "baseball":
		return 3 * time.Hour
	case "hockey", "basketball":
		return 2*time.Hour + 30*time.Minute
	case "soccer":
		return 2 * time.Hour
	default:
		return 3 * time.Hour
	}
}
