package render

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
	"github.com/02loveslollipop/village-health-surveillance/services/api/risk"
)

var fixtureRows = []db.Observation{
	{ID: 3, Village: "Green Valley", Diarrhea: 0, Fever: 1, Rainfall: risk.RainfallMedium, Risk: risk.TierSafe, Date: "2024-03-15"},
	{ID: 2, Village: "Riverside", Diarrhea: 7, Fever: 2, Rainfall: risk.RainfallLow, Risk: risk.TierMedium, Date: "2024-03-15"},
	{ID: 1, Village: "Greenfield", Diarrhea: 12, Fever: 5, Rainfall: risk.RainfallHigh, Risk: risk.TierHigh, Date: "2024-03-14"},
}

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func f64(v float64) *float64 { return &v }

func TestRender(t *testing.T) {
	third := 100.0 / 3
	populated := db.Statistics{
		Total:        3,
		MeanDiarrhea: f64(19.0 / 3),
		MeanFever:    f64(8.0 / 3),
		Distribution: []db.TierShare{
			{Tier: risk.TierSafe, Count: 1, Percent: f64(third)},
			{Tier: risk.TierMedium, Count: 1, Percent: f64(third)},
			{Tier: risk.TierHigh, Count: 1, Percent: f64(third)},
		},
	}
	empty := db.Statistics{
		Distribution: []db.TierShare{
			{Tier: risk.TierSafe},
			{Tier: risk.TierMedium},
			{Tier: risk.TierHigh},
		},
	}

	tests := []struct {
		name   string
		render func(buf *bytes.Buffer)
	}{
		{"observations", func(buf *bytes.Buffer) { Observations(buf, fixtureRows) }},
		{"observations_empty", func(buf *bytes.Buffer) { Observations(buf, nil) }},
		{"search", func(buf *bytes.Buffer) {
			SearchResults(buf, "green", []db.Observation{fixtureRows[0], fixtureRows[2]})
		}},
		{"search_empty", func(buf *bytes.Buffer) { SearchResults(buf, "Nowhere", nil) }},
		{"statistics", func(buf *bytes.Buffer) { Statistics(buf, populated) }},
		{"statistics_empty", func(buf *bytes.Buffer) { Statistics(buf, empty) }},
		{"menu", func(buf *bytes.Buffer) { Menu(buf) }},
		{"record", func(buf *bytes.Buffer) { Record(buf, fixtureRows[1]) }},
	}

	g := newGoldie(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.render(&buf)
			g.Assert(t, tt.name, buf.Bytes())
		})
	}
}
