package common

import (
	"testing"
	"time"
)

func day(n int64) int64 { return n * 86400 }

func TestCampaignProgress(t *testing.T) {
	cases := []struct {
		name       string
		start, end int64 // unix seconds
		asOf       int64
		want       float64
	}{
		{"before start", day(10), day(20), day(5), 0},
		{"at start", day(10), day(20), day(10), 0},
		{"halfway", day(10), day(20), day(15), 50},
		{"at end", day(10), day(20), day(20), 100},
		{"past end clamps", day(10), day(20), day(500), 100},
		{"zero length window", day(10), day(10), day(10), 0},
		{"end before start", day(20), day(10), day(15), 0},
	}
	for _, c := range cases {
		cmp := &Campaign{StartDate: c.start, EndDate: c.end}
		if got := cmp.Progress(time.Unix(c.asOf, 0)); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func validCampaign() *Campaign {
	return &Campaign{
		Name:        "Summer Launch",
		Description: "Launch push for the summer line",
		StartDate:   day(10),
		EndDate:     day(40),
		Budget:      1000,
		Status:      CampaignActive,
		Niche:       "Fashion",
		Visibility:  VisibilityPublic,
	}
}

func TestCampaignCheck(t *testing.T) {
	if err := validCampaign().Check(); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		mod  func(cmp *Campaign)
		want error
	}{
		{"no name", func(cmp *Campaign) { cmp.Name = "" }, ErrInvalidCampaign},
		{"no description", func(cmp *Campaign) { cmp.Description = "" }, ErrInvalidCampaign},
		{"zero budget", func(cmp *Campaign) { cmp.Budget = 0 }, ErrInvalidCampaign},
		{"negative budget", func(cmp *Campaign) { cmp.Budget = -5 }, ErrInvalidCampaign},
		{"unknown niche", func(cmp *Campaign) { cmp.Niche = "Crypto" }, ErrBadNiche},
		{"unknown status", func(cmp *Campaign) { cmp.Status = "Paused" }, ErrBadStatus},
		{"bad visibility", func(cmp *Campaign) { cmp.Visibility = "hidden" }, ErrBadVisibility},
	}
	for _, c := range cases {
		cmp := validCampaign()
		c.mod(cmp)
		if err := cmp.Check(); err != c.want {
			t.Errorf("%s: got %v, want %v", c.name, err, c.want)
		}
	}
}

func TestCampaignUpdateKeepsIdentity(t *testing.T) {
	cmp := validCampaign()
	cmp.Id, cmp.SponsorId = "7", "3"

	upd := validCampaign()
	upd.Id, upd.SponsorId = "999", "999"
	upd.Name, upd.Budget = "Renamed", 2500

	cmp.Update(upd)
	if cmp.Id != "7" || cmp.SponsorId != "3" {
		t.Fatalf("identity fields must not be overwritten: %+v", cmp)
	}
	if cmp.Name != "Renamed" || cmp.Budget != 2500 {
		t.Fatalf("editable fields not applied: %+v", cmp)
	}
}
