// Package dataset reads the two tabular training inputs: the match log and
// the team attribute history.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Alias1177/MatchScout/models"
	"github.com/rs/zerolog/log"
)

var (
	matchColumns     = []string{"date", "home_team", "away_team", "home_score", "away_score"}
	attributeColumns = []string{"team_name", "effective_from", "skill_rating"}
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// LoadMatches reads the match log from a CSV file.
func LoadMatches(path string) ([]models.MatchRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening match log: %w", err)
	}
	defer f.Close()

	matches, err := ReadMatches(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("count", len(matches)).Msg("Loaded match log")
	return matches, nil
}

// ReadMatches parses a match log. Any unparseable date or score is fatal.
func ReadMatches(r io.Reader) ([]models.MatchRecord, error) {
	rows, idx, err := readTable(r, matchColumns)
	if err != nil {
		return nil, err
	}

	matches := make([]models.MatchRecord, 0, len(rows))
	for i, row := range rows {
		line := i + 2 // header is line 1
		date, err := models.ParseDayFirst(row[idx["date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		home, err := parseScore(row[idx["home_score"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: home_score: %w", line, err)
		}
		away, err := parseScore(row[idx["away_score"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: away_score: %w", line, err)
		}
		homeTeam := strings.TrimSpace(row[idx["home_team"]])
		awayTeam := strings.TrimSpace(row[idx["away_team"]])
		if homeTeam == "" || awayTeam == "" {
			return nil, fmt.Errorf("line %d: empty team name", line)
		}

		matches = append(matches, models.MatchRecord{
			Seq:       i,
			Date:      date,
			HomeTeam:  homeTeam,
			AwayTeam:  awayTeam,
			HomeScore: home,
			AwayScore: away,
		})
	}
	return matches, nil
}

// LoadAttributes reads the team attribute history from a CSV file.
func LoadAttributes(path string) ([]models.TeamAttributeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening team attributes: %w", err)
	}
	defer f.Close()

	attrs, err := ReadAttributes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("count", len(attrs)).Msg("Loaded team attributes")
	return attrs, nil
}

// ReadAttributes parses a team attribute history.
func ReadAttributes(r io.Reader) ([]models.TeamAttributeRecord, error) {
	rows, idx, err := readTable(r, attributeColumns)
	if err != nil {
		return nil, err
	}

	attrs := make([]models.TeamAttributeRecord, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		from, err := models.ParseDayFirst(row[idx["effective_from"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		skill, err := strconv.ParseFloat(strings.TrimSpace(row[idx["skill_rating"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: skill_rating: %w", line, err)
		}
		attrs = append(attrs, models.TeamAttributeRecord{
			TeamName:      strings.TrimSpace(row[idx["team_name"]]),
			EffectiveFrom: from,
			SkillRating:   skill,
		})
	}
	return attrs, nil
}

func readTable(r io.Reader, required []string) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		idx[name] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading row: %w", err)
		}
		if blank(row) {
			continue
		}
		for _, col := range required {
			if idx[col] >= len(row) {
				return nil, nil, fmt.Errorf("row %d: %w: %s", len(rows)+2, ErrMissingColumn, col)
			}
		}
		rows = append(rows, row)
	}
	return rows, idx, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseScore accepts "2" and "2.0", the latter being what spreadsheet exports produce.
func parseScore(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative score %d", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid score %q", s)
	}
	return int(f), nil
}
