package models

import (
	"testing"
	"time"
)

func TestParseDayFirst(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{name: "slashes", in: "13/02/2024", want: time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC)},
		{name: "ambiguous is day first", in: "03/04/2024", want: time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)},
		{name: "no padding", in: "1/6/2024", want: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{name: "dashes", in: "01-06-2024", want: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{name: "iso", in: "2024-06-01", want: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{name: "whitespace", in: "  13/02/2024 ", want: time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC)},
		{name: "month out of range", in: "01/13/2024", wantErr: true},
		{name: "garbage", in: "yesterday", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDayFirst(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDayFirst(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDayFirst(%q) error: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDayFirst(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOutcomeMirror(t *testing.T) {
	tests := []struct {
		in, want Outcome
	}{
		{HomeWin, AwayWin},
		{AwayWin, HomeWin},
		{Draw, Draw},
	}
	for _, tt := range tests {
		if got := tt.in.Mirror(); got != tt.want {
			t.Errorf("%v.Mirror() = %v, want %v", tt.in, got, tt.want)
		}
		if got := tt.in.Mirror().Mirror(); got != tt.in {
			t.Errorf("%v mirrored twice = %v", tt.in, got)
		}
	}
}

func TestOutcomeFromScore(t *testing.T) {
	if got := OutcomeFromScore(2, 1); got != HomeWin {
		t.Errorf("OutcomeFromScore(2,1) = %v, want %v", got, HomeWin)
	}
	if got := OutcomeFromScore(0, 3); got != AwayWin {
		t.Errorf("OutcomeFromScore(0,3) = %v, want %v", got, AwayWin)
	}
	if got := OutcomeFromScore(1, 1); got != Draw {
		t.Errorf("OutcomeFromScore(1,1) = %v, want %v", got, Draw)
	}
}

func TestProbabilitiesFavourite(t *testing.T) {
	p := Probabilities{0.2, 0.3, 0.5}
	if got := p.Favourite(); got != HomeWin {
		t.Errorf("Favourite() = %v, want %v", got, HomeWin)
	}
	if p.TeamAWin() != 0.5 || p.TeamBWin() != 0.2 || p.Draw() != 0.3 {
		t.Errorf("slot accessors mismatch: %v", p)
	}
}
