package report

import (
	"fmt"
	"strings"

	"github.com/Alias1177/MatchScout/models"
)

// FormatPercents renders the distribution as "A% - draw% - B%".
func FormatPercents(p models.Probabilities) string {
	return fmt.Sprintf("%.0f%% - %.0f%% - %.0f%%", p.TeamAWin()*100, p.Draw()*100, p.TeamBWin()*100)
}

// BuildPrompt creates the scouting prompt for a prediction
func BuildPrompt(pred models.MatchPrediction) string {
	a, b := pred.TeamA, pred.TeamB
	p := pred.Probabilities

	var sb strings.Builder
	sb.WriteString("SYSTEM: Tactical Analyst.\n")
	sb.WriteString(fmt.Sprintf("MATCH: %s vs %s (neutral venue, no home advantage)\n\n", a, b))

	sb.WriteString("MATH FORECAST:\n")
	sb.WriteString(fmt.Sprintf("- %s Win: %.1f%%\n", a, p.TeamAWin()*100))
	sb.WriteString(fmt.Sprintf("- Draw: %.1f%%\n", p.Draw()*100))
	sb.WriteString(fmt.Sprintf("- %s Win: %.1f%%\n\n", b, p.TeamBWin()*100))

	sb.WriteString("FORM GUIDE:\n")
	for _, s := range []models.TeamState{pred.StateA, pred.StateB} {
		sb.WriteString(fmt.Sprintf("- %s: %.1f goals/game scored, %.1f conceded, skill %.0f", s.Team, s.Offense, s.Defense, s.Skill))
		if s.SeasonOffense != 0 || s.SeasonDefense != 0 {
			sb.WriteString(fmt.Sprintf(", season average %.1f scored / %.1f conceded", s.SeasonOffense, s.SeasonDefense))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("- Skill gap: %+.0f in favour of %s\n\n", pred.StateA.Skill-pred.StateB.Skill, a))

	sb.WriteString("OUTPUT FORMAT:\n")
	sb.WriteString("### PERCENTS\n")
	sb.WriteString(FormatPercents(p) + "\n\n")
	sb.WriteString("### INSIGHT\n")
	sb.WriteString("[3 sentences. Tactical focus. No numbers.]\n\n")
	sb.WriteString("### REASONING\n")
	sb.WriteString("[Explain why the model favors one team. Discuss Skill Gap vs Momentum.]\n")

	return sb.String()
}
