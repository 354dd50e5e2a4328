package features

import (
	"sort"
	"time"

	"github.com/Alias1177/MatchScout/models"
)

type skillPoint struct {
	from  time.Time
	skill float64
}

// SkillIndex answers point-in-time skill lookups. Each team's ratings are kept
// sorted by effective date so a lookup is a binary search.
type SkillIndex struct {
	byTeam map[string][]skillPoint
}

// NewSkillIndex builds the index. Records with the same team and date keep
// their input order, so the later record wins.
func NewSkillIndex(records []models.TeamAttributeRecord) *SkillIndex {
	idx := &SkillIndex{byTeam: make(map[string][]skillPoint)}
	for _, r := range records {
		idx.byTeam[r.TeamName] = append(idx.byTeam[r.TeamName], skillPoint{from: r.EffectiveFrom, skill: r.SkillRating})
	}
	for team, points := range idx.byTeam {
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].from.Before(points[j].from)
		})
		idx.byTeam[team] = points
	}
	return idx
}

// Lookup returns the rating of the latest record effective on or before date,
// or models.DefaultSkill when the team has none yet.
func (s *SkillIndex) Lookup(team string, date time.Time) float64 {
	points := s.byTeam[team]
	// first record strictly after date
	i := sort.Search(len(points), func(i int) bool {
		return points[i].from.After(date)
	})
	if i == 0 {
		return models.DefaultSkill
	}
	return points[i-1].skill
}

// Teams returns how many teams have at least one rating.
func (s *SkillIndex) Teams() int {
	return len(s.byTeam)
}
