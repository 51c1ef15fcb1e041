package teams

import (
	"reflect"
	"testing"
)

func TestStandingJSONTags(t *testing.T) {
	type fieldCheck struct {
		name string
		tag  string
	}
	standingType := reflect.TypeOf(Standing{})
	fields := []fieldCheck{
		{"ID", "id"},
		{"Name", "name"},
		{"TeamCode", "teamCode"},
		{"TeamName", "teamName"},
		{"ShortName", "shortName"},
		{"Wins", "wins"},
		{"Losses", "losses"},
		{"WinningPercentage", "winningPercentage"},
		{"DivisionRank", "divisionRank"},
		{"LeagueRank", "leagueRank"},
		{"Followers", "followers"},
	}
	for _, fc := range fields {
		f, ok := standingType.FieldByName(fc.name)
		if !ok {
			t.Fatalf("missing field %s", fc.name)
		}
		if tag := f.Tag.Get("json"); tag != fc.tag {
			t.Fatalf("field %s expected tag %s, got %s", fc.name, fc.tag, tag)
		}
	}
}

func TestNewStandingWithoutRecordDefaults(t *testing.T) {
	s := NewStanding(Team{ID: 147, Name: "New York Yankees"}, nil)
	if s.Wins != 0 || s.Losses != 0 || s.WinningPercentage != 0 {
		t.Fatalf("expected zero record, got %+v", s)
	}
	if s.DivisionRank != NotAvailable || s.LeagueRank != NotAvailable {
		t.Fatalf("expected N/A ranks, got %q/%q", s.DivisionRank, s.LeagueRank)
	}
	if s.Logo != "https://www.mlbstatic.com/team-logos/147.svg" {
		t.Fatalf("unexpected logo %s", s.Logo)
	}
}

func TestNewStandingCopiesRecord(t *testing.T) {
	s := NewStanding(Team{ID: 119}, &Record{Wins: 98, Losses: 64, WinningPercentage: 0.605, DivisionRank: "1"})
	if s.Wins != 98 || s.Losses != 64 || s.WinningPercentage != 0.605 {
		t.Fatalf("unexpected record %+v", s)
	}
	if s.DivisionRank != "1" || s.LeagueRank != NotAvailable {
		t.Fatalf("unexpected ranks %q/%q", s.DivisionRank, s.LeagueRank)
	}
}

func TestNewRefFillsLogo(t *testing.T) {
	ref := NewRef(121, "New York Mets", "/api/v1/teams/121")
	if ref.Logo != LogoURL(121) {
		t.Fatalf("expected logo to be derived from id, got %s", ref.Logo)
	}
}
