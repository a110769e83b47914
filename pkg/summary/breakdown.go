package summary

import (
	"cmp"
	"slices"

	"github.com/klokku/timestudy/pkg/stoppage"
)

type KindShare struct {
	Kind    stoppage.Kind
	Seconds float64
}

type DescriptionShare struct {
	Description string
	Minutes     float64
}

// StoppageBreakdown is the chart data for a study: total seconds per kind and the
// minutes lost per description within each kind.
type StoppageBreakdown struct {
	ByKind    []KindShare
	Planned   []DescriptionShare
	Unplanned []DescriptionShare
}

type ProductionComparison struct {
	Planned float64
	Actual  int
}

func Breakdown(events []stoppage.Event) StoppageBreakdown {
	planned, unplanned := stopSeconds(events)
	return StoppageBreakdown{
		ByKind: []KindShare{
			{Kind: stoppage.Planned, Seconds: round2(planned)},
			{Kind: stoppage.Unplanned, Seconds: round2(unplanned)},
		},
		Planned:   byDescription(events, stoppage.Planned),
		Unplanned: byDescription(events, stoppage.Unplanned),
	}
}

func Production(s Summary) ProductionComparison {
	return ProductionComparison{Planned: s.PlannedProduction, Actual: s.ProducedUnits}
}

func byDescription(events []stoppage.Event, kind stoppage.Kind) []DescriptionShare {
	secondsByDesc := map[string]float64{}
	for _, e := range events {
		if e.Kind == kind {
			secondsByDesc[e.Description] += e.DurationSeconds
		}
	}

	shares := make([]DescriptionShare, 0, len(secondsByDesc))
	for desc, seconds := range secondsByDesc {
		shares = append(shares, DescriptionShare{Description: desc, Minutes: round2(seconds / 60)})
	}
	slices.SortFunc(shares, func(a, b DescriptionShare) int {
		if c := cmp.Compare(b.Minutes, a.Minutes); c != 0 {
			return c
		}
		return cmp.Compare(a.Description, b.Description)
	})
	return shares
}
