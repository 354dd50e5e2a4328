package models

import (
	"time"
)

// DefaultSkill is the rating assumed for a team with no attribute record yet.
const DefaultSkill = 1500.0

// Outcome is the 3-class label. The numeric values are the probability slot order.
type Outcome int

const (
	AwayWin Outcome = 0
	Draw    Outcome = 1
	HomeWin Outcome = 2
)

// NumOutcomes is the number of classes the classifier predicts.
const NumOutcomes = 3

func (o Outcome) String() string {
	switch o {
	case AwayWin:
		return "away_win"
	case Draw:
		return "draw"
	case HomeWin:
		return "home_win"
	}
	return "unknown"
}

// Mirror returns the label of the same match seen from the other side.
func (o Outcome) Mirror() Outcome {
	switch o {
	case HomeWin:
		return AwayWin
	case AwayWin:
		return HomeWin
	}
	return o
}

// OutcomeFromScore derives the label from a final score.
func OutcomeFromScore(home, away int) Outcome {
	switch {
	case home > away:
		return HomeWin
	case home < away:
		return AwayWin
	}
	return Draw
}

// MatchRecord is one historical result.
type MatchRecord struct {
	Seq       int       `json:"seq"` // position in the source file
	Date      time.Time `json:"date"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
}

// TeamAttributeRecord is a skill rating effective from a date onwards.
type TeamAttributeRecord struct {
	TeamName      string    `json:"team_name"`
	EffectiveFrom time.Time `json:"effective_from"`
	SkillRating   float64   `json:"skill_rating"`
}

// TimelineEntry is one match seen from one team's perspective.
type TimelineEntry struct {
	Team          string
	Date          time.Time
	Seq           int
	GoalsScored   int
	GoalsConceded int

	// Form over the trailing window, strictly prior matches only.
	Offense float64
	Defense float64

	// Expanding averages over prior matches in the same season.
	SeasonOffense float64
	SeasonDefense float64
}

// FeatureRow is a match in one orientation. T1 is the home side of the row.
type FeatureRow struct {
	Seq       int       `json:"seq"`
	Date      time.Time `json:"date"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	Mirrored  bool      `json:"mirrored"`
	Result    Outcome   `json:"result"`

	T1Skill  float64 `json:"t1_skill"`
	T2Skill  float64 `json:"t2_skill"`
	SkillGap float64 `json:"skill_gap"`

	T1OP float64 `json:"t1_op"`
	T1DS float64 `json:"t1_ds"`
	T2OP float64 `json:"t2_op"`
	T2DS float64 `json:"t2_ds"`

	T1SOP float64 `json:"t1_sop"`
	T1SDS float64 `json:"t1_sds"`
	T2SOP float64 `json:"t2_sop"`
	T2SDS float64 `json:"t2_sds"`

	Dominance float64 `json:"dominance"`
}

// TeamState is what the latest processed row says about one team.
type TeamState struct {
	Team          string    `json:"team"`
	AsOf          time.Time `json:"as_of"`
	Skill         float64   `json:"skill"`
	Offense       float64   `json:"offense"`
	Defense       float64   `json:"defense"`
	SeasonOffense float64   `json:"season_offense"`
	SeasonDefense float64   `json:"season_defense"`
}

// Probabilities holds the class distribution in slot order
// {team_b_win, draw, team_a_win}.
type Probabilities [NumOutcomes]float64

func (p Probabilities) TeamBWin() float64 { return p[AwayWin] }
func (p Probabilities) Draw() float64     { return p[Draw] }
func (p Probabilities) TeamAWin() float64 { return p[HomeWin] }

// Sum is used by callers checking the distribution.
func (p Probabilities) Sum() float64 {
	return p[0] + p[1] + p[2]
}

// Favourite returns the most likely outcome from team A's perspective.
func (p Probabilities) Favourite() Outcome {
	best := AwayWin
	for o := Draw; o <= HomeWin; o++ {
		if p[o] > p[best] {
			best = o
		}
	}
	return best
}

// MatchPrediction is the inference result for a pair of teams.
type MatchPrediction struct {
	TeamA         string        `json:"team_a"`
	TeamB         string        `json:"team_b"`
	Raw           Probabilities `json:"raw"`
	Probabilities Probabilities `json:"probabilities"`
	StateA        TeamState     `json:"state_a"`
	StateB        TeamState     `json:"state_b"`
	Schema        string        `json:"schema"`
}

// ScoutReport is the prediction plus the language model's commentary.
type ScoutReport struct {
	ID          string          `json:"id"`
	Prediction  MatchPrediction `json:"prediction"`
	Percents    string          `json:"percents"`
	Insight     string          `json:"insight"`
	Reasoning   string          `json:"reasoning"`
	RawText     string          `json:"raw_text,omitempty"`
	Degraded    bool            `json:"degraded"`
	Cached      bool            `json:"cached"`
	GeneratedAt time.Time       `json:"generated_at"`
}
