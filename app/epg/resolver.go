package epg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bittles/teamarr/app/sports"
)

// ErrInvalidEvent marks an event that cannot be resolved at all. This is the
// only fatal resolution outcome; missing upstream data degrades to fallbacks.
var ErrInvalidEvent = errors.New("event has no team references")

// Neutral placeholder for data the upstream source did not provide.
const placeholderTBD = "TBD"

// Perspective identifies which side of an event is "the team" and carries the
// feed identity used for fallbacks.
type Perspective struct {
	TeamID    string
	ChannelID string
	League    string
	Sport     string
}

// Resolver computes the template variable mapping for one (event, perspective)
// pair. Times are rendered in the configured display timezone; storage stays UTC.
type Resolver struct {
	loc    *time.Location
	titler cases.Caser
}

func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{
		loc:    loc,
		titler: cases.Title(language.AmericanEnglish),
	}
}

// Resolve builds the full TemplateContext for an event from the perspective's
// side. Every name in VariableNames() is present in the result. It fails only
// when the event references no teams at all.
func (r *Resolver) Resolve(event sports.Event, p Perspective, snap *sports.Snapshot) (TemplateContext, error) {
	if event.HomeID == "" && event.AwayID == "" {
		return nil, fmt.Errorf("%w: event %s", ErrInvalidEvent, event.ID)
	}

	ctx := make(TemplateContext, len(VariableNames()))

	isHome := event.HomeID == p.TeamID

	var team, opponent *sports.Team
	if snap != nil {
		team = snap.Team
		opponent = snap.Opponent(event, p.TeamID)
	}

	teamName := r.teamDisplayName(team, event, isHome, p)
	opponentName := r.opponentDisplayName(opponent, event, isHome)

	r.setGameVars(ctx, event, p)
	r.setSideVars(ctx, event, isHome)
	r.setTeamVars(ctx, "team_", team, teamName)
	r.setTeamVars(ctx, "opponent_", opponent, opponentName)
	r.setScoreVars(ctx, event, isHome)
	r.setNextGameVars(ctx, event, p, snap)

	// Legacy unprefixed aliases used by authored templates.
	ctx["team_name"] = teamName
	ctx["opponent"] = opponentName
	ctx["record"] = ctx["team_record"]
	ctx["rank"] = ctx["team_rank"]
	ctx["streak"] = ctx["team_streak"]
	ctx["win_streak"] = ctx["team_win_streak"]
	ctx["loss_streak"] = ctx["team_loss_streak"]

	// Venue defaults to the home team's arena when the event has no override.
	if ctx["venue"] == "" || ctx["venue"] == placeholderTBD {
		if isHome && ctx["team_venue"] != "" {
			ctx["venue"] = ctx["team_venue"]
			ctx["venue_city"] = ctx["team_venue_city"]
		} else if !isHome && ctx["opponent_venue"] != "" {
			ctx["venue"] = ctx["opponent_venue"]
			ctx["venue_city"] = ctx["opponent_venue_city"]
		}
	}
	ctx["venue_full"] = joinNonEmpty(", ", ctx["venue"], ctx["venue_city"], ctx["venue_state"])
	if ctx["venue"] == "" {
		ctx["venue"] = placeholderTBD
		ctx["venue_full"] = placeholderTBD
	}

	return ctx, nil
}

// ResolveIdle builds the reduced context used for idle (no game today) filler
// programming: team identity plus next-game variables, rendered for one day.
func (r *Resolver) ResolveIdle(day time.Time, next *sports.Event, p Perspective, snap *sports.Snapshot) TemplateContext {
	ctx := make(TemplateContext)

	var team *sports.Team
	if snap != nil {
		team = snap.Team
	}
	teamName := r.fallbackName(p.ChannelID)
	if team != nil && team.DisplayName != "" {
		teamName = team.DisplayName
	}

	r.setTeamVars(ctx, "team_", team, teamName)
	ctx["team_name"] = teamName
	ctx["record"] = ctx["team_record"]
	ctx["rank"] = ctx["team_rank"]
	ctx["streak"] = ctx["team_streak"]
	ctx["league"] = p.League
	ctx["league_upper"] = strings.ToUpper(p.League)
	ctx["sport"] = p.Sport
	ctx["channel_id"] = p.ChannelID

	local := day.In(r.loc)
	ctx["game_date"] = local.Format("1/2")
	ctx["game_date_long"] = local.Format("Monday, January 2, 2006")
	ctx["game_day"] = local.Format("Monday")

	r.setNextVars(ctx, next, p)

	return ctx
}

func (r *Resolver) setGameVars(ctx TemplateContext, event sports.Event, p Perspective) {
	local := event.Start.In(r.loc)
	localEnd := event.End.In(r.loc)

	ctx["game_id"] = event.ID
	ctx["matchup"] = fallback(event.Name, placeholderTBD)
	ctx["matchup_short"] = fallback(event.ShortName, ctx["matchup"])

	ctx["game_date"] = local.Format("1/2")
	ctx["game_date_short"] = local.Format("Jan 2")
	ctx["game_date_long"] = local.Format("Monday, January 2, 2006")
	ctx["game_day"] = local.Format("Monday")
	ctx["game_day_short"] = local.Format("Mon")
	ctx["game_month"] = local.Format("January")
	ctx["game_month_short"] = local.Format("Jan")
	ctx["game_day_of_month"] = strconv.Itoa(local.Day())
	ctx["game_year"] = strconv.Itoa(local.Year())

	ctx["game_time"] = local.Format("3:04 PM")
	ctx["game_time_24"] = local.Format("15:04")
	ctx["game_end_time"] = localEnd.Format("3:04 PM")
	ctx["game_end_time_24"] = localEnd.Format("15:04")
	ctx["game_timezone"] = local.Format("MST")
	ctx["game_datetime"] = local.Format("Monday, January 2 at 3:04 PM")

	ctx["broadcast"] = event.Broadcast
	ctx["game_status"] = string(event.Status)

	if event.Venue != nil {
		ctx["venue"] = event.Venue.Name
		ctx["venue_city"] = event.Venue.City
		ctx["venue_state"] = event.Venue.State
	} else {
		ctx["venue"] = ""
		ctx["venue_city"] = ""
		ctx["venue_state"] = ""
	}

	ctx["league"] = p.League
	ctx["league_upper"] = strings.ToUpper(p.League)
	ctx["sport"] = p.Sport
	ctx["sport_title"] = r.titler.String(p.Sport)
	ctx["channel_id"] = p.ChannelID

	ctx["series_record"] = fallback(event.SeriesSummary, "")
	ctx["rivalry"] = strconv.FormatBool(event.Rivalry)
	ctx["division_game"] = strconv.FormatBool(event.DivisionGame)
}

func (r *Resolver) setSideVars(ctx TemplateContext, event sports.Event, isHome bool) {
	ctx["home_team"] = fallback(event.HomeName, placeholderTBD)
	ctx["away_team"] = fallback(event.AwayName, placeholderTBD)
	ctx["is_home"] = strconv.FormatBool(isHome)
	if isHome {
		ctx["home_away"] = "home"
	} else {
		ctx["home_away"] = "away"
	}
}

func (r *Resolver) setScoreVars(ctx TemplateContext, event sports.Event, isHome bool) {
	ctx["home_score"] = formatScore(event.HomeScore)
	ctx["away_score"] = formatScore(event.AwayScore)
	if isHome {
		ctx["team_score"] = ctx["home_score"]
		ctx["opponent_score"] = ctx["away_score"]
	} else {
		ctx["team_score"] = ctx["away_score"]
		ctx["opponent_score"] = ctx["home_score"]
	}
}

// setTeamVars fills one side's variables; team may be nil when the cache has
// no record for it, in which case every variable gets its documented fallback.
func (r *Resolver) setTeamVars(ctx TemplateContext, prefix string, team *sports.Team, displayName string) {
	if team == nil {
		team = &sports.Team{}
	}

	ctx[prefix+"name"] = displayName
	ctx[prefix+"full_name"] = displayName
	ctx[prefix+"short"] = fallback(team.ShortName, displayName)
	ctx[prefix+"abbrev"] = team.Abbreviation
	ctx[prefix+"location"] = fallback(team.Location, locationFromName(displayName))
	ctx[prefix+"mascot"] = fallback(team.Mascot, mascotFromName(displayName))
	ctx[prefix+"id"] = team.ID

	ctx[prefix+"record"] = team.Record.Summary()
	ctx[prefix+"wins"] = strconv.Itoa(team.Record.Wins)
	ctx[prefix+"losses"] = strconv.Itoa(team.Record.Losses)
	ctx[prefix+"ties"] = strconv.Itoa(team.Record.Ties)
	ctx[prefix+"win_pct"] = formatWinPct(team.Record)
	ctx[prefix+"games_played"] = strconv.Itoa(team.Record.Games())
	ctx[prefix+"home_record"] = team.HomeRecord.Summary()
	ctx[prefix+"away_record"] = team.AwayRecord.Summary()
	ctx[prefix+"conference_record"] = team.ConferenceRecord.Summary()
	ctx[prefix+"division_record"] = team.DivisionRecord.Summary()
	ctx[prefix+"last10"] = team.LastTen.Summary()
	ctx[prefix+"ppg"] = formatAverage(team.PointsFor)
	ctx[prefix+"papg"] = formatAverage(team.PointsAgainst)

	ctx[prefix+"rank"] = formatRank(team.Rank)
	ctx[prefix+"standing"] = team.Standing
	ctx[prefix+"venue"] = team.Venue.Name
	ctx[prefix+"venue_city"] = team.Venue.City

	ctx[prefix+"streak"] = formatStreak(team.Streak)
	ctx[prefix+"streak_length"] = strconv.Itoa(team.Streak.Length)
	ctx[prefix+"streak_kind"] = string(team.Streak.Kind)
	ctx[prefix+"streak_text"] = streakText(team.Streak)
	if team.Streak.Kind == sports.StreakWin {
		ctx[prefix+"win_streak"] = strconv.Itoa(team.Streak.Length)
		ctx[prefix+"loss_streak"] = "0"
	} else if team.Streak.Kind == sports.StreakLoss {
		ctx[prefix+"win_streak"] = "0"
		ctx[prefix+"loss_streak"] = strconv.Itoa(team.Streak.Length)
	} else {
		ctx[prefix+"win_streak"] = "0"
		ctx[prefix+"loss_streak"] = "0"
	}

	r.setLeaderVars(ctx, prefix, team.Leaders)
}

// Leader categories surfaced as template variables.
var leaderCategories = []string{"points", "rebounds", "assists", "passingYards", "rushingYards", "goals"}

func (r *Resolver) setLeaderVars(ctx TemplateContext, prefix string, leaders []sports.Leader) {
	byCategory := make(map[string]sports.Leader, len(leaders))
	for _, leader := range leaders {
		byCategory[leader.Category] = leader
	}

	for _, category := range leaderCategories {
		nameKey := prefix + strings.ToLower(category) + "_leader"
		valueKey := nameKey + "_value"
		if leader, ok := byCategory[category]; ok {
			ctx[nameKey] = leader.PlayerName
			ctx[valueKey] = leader.DisplayValue
		} else {
			ctx[nameKey] = ""
			ctx[valueKey] = ""
		}
	}
}

func (r *Resolver) setNextGameVars(ctx TemplateContext, event sports.Event, p Perspective, snap *sports.Snapshot) {
	var next *sports.Event
	if snap != nil {
		for i := range snap.Events {
			candidate := snap.Events[i]
			if candidate.ID != event.ID && candidate.Start.After(event.Start) {
				if next == nil || candidate.Start.Before(next.Start) {
					next = &snap.Events[i]
				}
			}
		}
	}
	r.setNextVars(ctx, next, p)
}

func (r *Resolver) setNextVars(ctx TemplateContext, next *sports.Event, p Perspective) {
	if next == nil {
		ctx["next_opponent"] = placeholderTBD
		ctx["next_matchup"] = placeholderTBD
		ctx["next_date"] = placeholderTBD
		ctx["next_date_long"] = placeholderTBD
		ctx["next_day"] = placeholderTBD
		ctx["next_time"] = placeholderTBD
		ctx["next_time_24"] = placeholderTBD
		ctx["next_venue"] = placeholderTBD
		ctx["days_until_next"] = ""
		return
	}

	local := next.Start.In(r.loc)
	opponentName := next.AwayName
	if next.AwayID == p.TeamID {
		opponentName = next.HomeName
	}

	ctx["next_opponent"] = fallback(opponentName, placeholderTBD)
	ctx["next_matchup"] = fallback(next.ShortName, next.Name)
	ctx["next_date"] = local.Format("1/2")
	ctx["next_date_long"] = local.Format("Monday, January 2")
	ctx["next_day"] = local.Format("Monday")
	ctx["next_time"] = local.Format("3:04 PM")
	ctx["next_time_24"] = local.Format("15:04")
	if next.Venue != nil {
		ctx["next_venue"] = next.Venue.Name
	} else {
		ctx["next_venue"] = placeholderTBD
	}
	days := int(time.Until(next.Start).Hours() / 24)
	if days < 0 {
		days = 0
	}
	ctx["days_until_next"] = strconv.Itoa(days)
}

func (r *Resolver) teamDisplayName(team *sports.Team, event sports.Event, isHome bool, p Perspective) string {
	if team != nil && team.DisplayName != "" {
		return team.DisplayName
	}
	if isHome && event.HomeName != "" {
		return event.HomeName
	}
	if !isHome && event.AwayName != "" {
		return event.AwayName
	}
	return r.fallbackName(p.ChannelID)
}

func (r *Resolver) opponentDisplayName(opponent *sports.Team, event sports.Event, isHome bool) string {
	if opponent != nil && opponent.DisplayName != "" {
		return opponent.DisplayName
	}
	if isHome && event.AwayName != "" {
		return event.AwayName
	}
	if !isHome && event.HomeName != "" {
		return event.HomeName
	}
	return placeholderTBD
}

// fallbackName prettifies a channel id slug, e.g. "detroit-pistons" becomes
// "Detroit Pistons".
func (r *Resolver) fallbackName(channelID string) string {
	if channelID == "" {
		return placeholderTBD
	}
	return r.titler.String(strings.ReplaceAll(channelID, "-", " "))
}

func fallback(value, alt string) string {
	if value == "" {
		return alt
	}
	return value
}

func formatScore(score *int) string {
	if score == nil {
		return ""
	}
	return strconv.Itoa(*score)
}

func formatRank(rank int) string {
	if rank <= 0 {
		return ""
	}
	return "#" + strconv.Itoa(rank)
}

func formatWinPct(record sports.Record) string {
	games := record.Games()
	if games == 0 {
		return ".000"
	}
	pct := float64(record.Wins) / float64(games)
	return strings.TrimPrefix(fmt.Sprintf("%.3f", pct), "0")
}

func formatAverage(value float64) string {
	if value == 0 {
		return ""
	}
	return fmt.Sprintf("%.1f", value)
}

// formatStreak renders "W5" / "L2", or "" with no active streak.
func formatStreak(streak sports.Streak) string {
	switch streak.Kind {
	case sports.StreakWin:
		return "W" + strconv.Itoa(streak.Length)
	case sports.StreakLoss:
		return "L" + strconv.Itoa(streak.Length)
	default:
		return ""
	}
}

// streakText renders "5 game winning streak" / "2 game losing streak".
func streakText(streak sports.Streak) string {
	switch streak.Kind {
	case sports.StreakWin:
		return fmt.Sprintf("%d game winning streak", streak.Length)
	case sports.StreakLoss:
		return fmt.Sprintf("%d game losing streak", streak.Length)
	default:
		return ""
	}
}

// locationFromName splits "Detroit Pistons" into "Detroit". Multi-word
// mascots are rare enough that last-word splitting is acceptable as a fallback.
func locationFromName(name string) string {
	if name == "" || name == placeholderTBD {
		return ""
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return ""
	}
	return name[:idx]
}

func mascotFromName(name string) string {
	if name == "" || name == placeholderTBD {
		return ""
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}

// variableNames is the registry of every recognized template variable.
var variableNames = buildVariableNames()

// VariableNames returns every recognized template variable name. The resolver
// guarantees each is present in a resolved context.
func VariableNames() []string {
	names := make([]string, len(variableNames))
	copy(names, variableNames)
	return names
}

func buildVariableNames() []string {
	names := []string{
		// Game
		"game_id", "matchup", "matchup_short",
		"game_date", "game_date_short", "game_date_long",
		"game_day", "game_day_short", "game_month", "game_month_short",
		"game_day_of_month", "game_year",
		"game_time", "game_time_24", "game_end_time", "game_end_time_24",
		"game_timezone", "game_datetime",
		"broadcast", "game_status",
		"venue", "venue_city", "venue_state", "venue_full",
		"league", "league_upper", "sport", "sport_title", "channel_id",
		"series_record", "rivalry", "division_game",
		// Sides
		"home_team", "away_team", "is_home", "home_away",
		"home_score", "away_score", "team_score", "opponent_score",
		// Next game
		"next_opponent", "next_matchup", "next_date", "next_date_long",
		"next_day", "next_time", "next_time_24", "next_venue", "days_until_next",
		// Legacy aliases
		"team_name", "opponent", "record", "rank", "streak", "win_streak", "loss_streak",
	}

	sideVars := []string{
		"name", "full_name", "short", "abbrev", "location", "mascot", "id",
		"record", "wins", "losses", "ties", "win_pct", "games_played",
		"home_record", "away_record", "conference_record", "division_record",
		"last10", "ppg", "papg",
		"rank", "standing", "venue", "venue_city",
		"streak", "streak_length", "streak_kind", "streak_text",
		"win_streak", "loss_streak",
	}
	for _, prefix := range []string{"team_", "opponent_"} {
		for _, v := range sideVars {
			names = append(names, prefix+v)
		}
		for _, category := range leaderCategories {
			key := prefix + strings.ToLower(category) + "_leader"
			names = append(names, key, key+"_value")
		}
	}

	return dedupe(names)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
