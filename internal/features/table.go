package features

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Alias1177/MatchScout/models"
)

// ErrNoMatches is returned when there is nothing to build a table from.
var ErrNoMatches = errors.New("no matches")

// Table is the processed, symmetric feature table. Rows holds the original
// orientation of every match in chronological order followed by the mirrored
// copies in the same order.
type Table struct {
	Rows   []models.FeatureRow
	Scaler *Scaler // nil unless the schema uses one
}

// Originals returns the non-mirrored half of the table.
func (t *Table) Originals() []models.FeatureRow {
	return t.Rows[:len(t.Rows)/2]
}

// SortMatches orders matches by date; matches on the same date keep file order.
func SortMatches(matches []models.MatchRecord) []models.MatchRecord {
	sorted := append([]models.MatchRecord(nil), matches...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Seq < sorted[j].Seq
	})
	return sorted
}

// BuildTable runs the feature engineering steps for a schema.
func BuildTable(matches []models.MatchRecord, attributes []models.TeamAttributeRecord, schema Schema) (*Table, error) {
	if len(matches) == 0 {
		return nil, ErrNoMatches
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.HomeTeam == m.AwayTeam {
			return nil, fmt.Errorf("match %d on %s: %q plays itself", m.Seq, m.Date.Format("2006-01-02"), m.HomeTeam)
		}
	}

	sorted := SortMatches(matches)
	skills := NewSkillIndex(attributes)
	form := indexTimeline(BuildTimeline(sorted, schema.FormWindow, schema.UsesSeason))

	rows := make([]models.FeatureRow, 0, 2*len(sorted))
	for _, m := range sorted {
		home := form[timelineKey{team: m.HomeTeam, seq: m.Seq}]
		away := form[timelineKey{team: m.AwayTeam, seq: m.Seq}]
		rows = append(rows, models.FeatureRow{
			Seq:       m.Seq,
			Date:      m.Date,
			HomeTeam:  m.HomeTeam,
			AwayTeam:  m.AwayTeam,
			HomeScore: m.HomeScore,
			AwayScore: m.AwayScore,
			Result:    models.OutcomeFromScore(m.HomeScore, m.AwayScore),
			T1Skill:   skills.Lookup(m.HomeTeam, m.Date),
			T2Skill:   skills.Lookup(m.AwayTeam, m.Date),
			T1OP:      home.Offense,
			T1DS:      home.Defense,
			T2OP:      away.Offense,
			T2DS:      away.Defense,
			T1SOP:     home.SeasonOffense,
			T1SDS:     home.SeasonDefense,
			T2SOP:     away.SeasonOffense,
			T2SDS:     away.SeasonDefense,
		})
	}

	n := len(rows)
	for i := 0; i < n; i++ {
		rows = append(rows, Mirror(rows[i]))
	}
	for i := range rows {
		rows[i].SkillGap = rows[i].T1Skill - rows[i].T2Skill
	}

	table := &Table{Rows: rows}
	if schema.UsesScaler {
		scaler, err := FitScaler(schema.ScalerKind, rows)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].Dominance = Dominance(scaler, schema.Weights, &rows[i])
		}
		table.Scaler = scaler
	}
	return table, nil
}

// Mirror swaps the two sides of a row and flips its label. The antisymmetric
// derived columns are negated.
func Mirror(r models.FeatureRow) models.FeatureRow {
	m := r
	m.Mirrored = !r.Mirrored
	m.HomeTeam, m.AwayTeam = r.AwayTeam, r.HomeTeam
	m.HomeScore, m.AwayScore = r.AwayScore, r.HomeScore
	m.Result = r.Result.Mirror()
	m.T1Skill, m.T2Skill = r.T2Skill, r.T1Skill
	m.T1OP, m.T2OP = r.T2OP, r.T1OP
	m.T1DS, m.T2DS = r.T2DS, r.T1DS
	m.T1SOP, m.T2SOP = r.T2SOP, r.T1SOP
	m.T1SDS, m.T2SDS = r.T2SDS, r.T1SDS
	m.SkillGap = -r.SkillGap
	m.Dominance = -r.Dominance
	return m
}
