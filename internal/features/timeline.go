package features

import (
	"sort"

	"github.com/Alias1177/MatchScout/models"
)

// timelineKey identifies one team's view of one match.
type timelineKey struct {
	team string
	seq  int
}

// BuildTimeline unpivots every match into two team-perspective entries,
// orders them by (team, date, seq) and fills in the form statistics.
//
// Form at entry i only looks at entries before i of the same team: the
// window is shifted by one before averaging, so a match never sees its own
// score. Entries with no prior match get 0.
func BuildTimeline(matches []models.MatchRecord, window int, seasonal bool) []models.TimelineEntry {
	timeline := make([]models.TimelineEntry, 0, 2*len(matches))
	for _, m := range matches {
		timeline = append(timeline,
			models.TimelineEntry{Team: m.HomeTeam, Date: m.Date, Seq: m.Seq, GoalsScored: m.HomeScore, GoalsConceded: m.AwayScore},
			models.TimelineEntry{Team: m.AwayTeam, Date: m.Date, Seq: m.Seq, GoalsScored: m.AwayScore, GoalsConceded: m.HomeScore},
		)
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		a, b := timeline[i], timeline[j]
		if a.Team != b.Team {
			return a.Team < b.Team
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Seq < b.Seq
	})

	start := 0
	for i := 1; i <= len(timeline); i++ {
		if i == len(timeline) || timeline[i].Team != timeline[start].Team {
			rollTeam(timeline[start:i], window)
			if seasonal {
				seasonTeam(timeline[start:i])
			}
			start = i
		}
	}
	return timeline
}

// rollTeam computes trailing means over at most window prior entries.
func rollTeam(entries []models.TimelineEntry, window int) {
	if window < 1 {
		window = 1
	}
	for i := range entries {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		n := i - lo
		if n == 0 {
			entries[i].Offense, entries[i].Defense = 0, 0
			continue
		}
		var scored, conceded int
		for _, prev := range entries[lo:i] {
			scored += prev.GoalsScored
			conceded += prev.GoalsConceded
		}
		entries[i].Offense = float64(scored) / float64(n)
		entries[i].Defense = float64(conceded) / float64(n)
	}
}

// seasonTeam computes expanding means over prior entries of the same season.
func seasonTeam(entries []models.TimelineEntry) {
	season := -1
	var n, scored, conceded int
	for i := range entries {
		if s := models.Season(entries[i].Date); s != season {
			season = s
			n, scored, conceded = 0, 0, 0
		}
		if n > 0 {
			entries[i].SeasonOffense = float64(scored) / float64(n)
			entries[i].SeasonDefense = float64(conceded) / float64(n)
		} else {
			entries[i].SeasonOffense, entries[i].SeasonDefense = 0, 0
		}
		n++
		scored += entries[i].GoalsScored
		conceded += entries[i].GoalsConceded
	}
}

// indexTimeline maps (team, seq) to the entry so form can be merged back
// onto matches without relying on dates being unique per team.
func indexTimeline(timeline []models.TimelineEntry) map[timelineKey]models.TimelineEntry {
	idx := make(map[timelineKey]models.TimelineEntry, len(timeline))
	for _, e := range timeline {
		idx[timelineKey{team: e.Team, seq: e.Seq}] = e
	}
	return idx
}
