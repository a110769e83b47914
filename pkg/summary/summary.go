package summary

import (
	"errors"
	"fmt"
	"math"

	"github.com/klokku/timestudy/pkg/session"
	"github.com/klokku/timestudy/pkg/stoppage"
)

// ErrInvalidSessionWindow means the break consumes the whole study window. No summary,
// chart or export can be produced until the operator corrects the session.
var ErrInvalidSessionWindow = errors.New("study duration must be greater than zero")

// Summary holds the metrics derived from a session and its stoppages. Minute, second,
// production and percentage values are rounded to two decimals.
type Summary struct {
	SessionMinutes       float64
	PlannedStopSeconds   float64
	UnplannedStopSeconds float64
	TotalStopSeconds     float64
	UtilizationPct       float64
	ProducedUnits        int
	PlannedProduction    float64
	PerformancePct       float64

	// PlannedAvailableMinutes is the session time left after planned stoppages.
	PlannedAvailableMinutes float64
	// NetSeconds is the session time left after all stoppages.
	NetSeconds float64
}

// Compute derives the study metrics. Planned stoppages shrink the production target, the
// line was never expected to run during them. Unplanned stoppages leave the target as it is
// and only lower utilization and performance.
func Compute(s session.Session, events []stoppage.Event) (Summary, error) {
	sessionMinutes := round2(s.ElapsedMinutes() - s.BreakTime)
	if sessionMinutes <= 0 {
		return Summary{}, fmt.Errorf("%w: %.2f minutes after %.2f minutes break",
			ErrInvalidSessionWindow, sessionMinutes, s.BreakTime)
	}

	plannedSec, unplannedSec := stopSeconds(events)
	totalStopSec := plannedSec + unplannedSec

	plannedAvailable := math.Max(sessionMinutes-plannedSec/60, 0)
	plannedProduction := 0.0
	if s.UnitTime > 0 {
		plannedProduction = plannedAvailable / s.UnitTime
	}

	sessionSeconds := sessionMinutes * 60
	netSeconds := math.Max(sessionSeconds-totalStopSec, 0)
	utilization := netSeconds / sessionSeconds * 100

	produced := s.ProducedUnits()
	performance := 0.0
	if plannedProduction > 0 {
		performance = float64(produced) / plannedProduction * 100
	}

	return Summary{
		SessionMinutes:          sessionMinutes,
		PlannedStopSeconds:      round2(plannedSec),
		UnplannedStopSeconds:    round2(unplannedSec),
		TotalStopSeconds:        round2(totalStopSec),
		UtilizationPct:          round2(utilization),
		ProducedUnits:           produced,
		PlannedProduction:       round2(plannedProduction),
		PerformancePct:          round2(performance),
		PlannedAvailableMinutes: round2(plannedAvailable),
		NetSeconds:              round2(netSeconds),
	}, nil
}

func (s Summary) PlannedStopMinutes() float64   { return round2(s.PlannedStopSeconds / 60) }
func (s Summary) UnplannedStopMinutes() float64 { return round2(s.UnplannedStopSeconds / 60) }
func (s Summary) TotalStopMinutes() float64     { return round2(s.TotalStopSeconds / 60) }

func stopSeconds(events []stoppage.Event) (planned, unplanned float64) {
	for _, e := range events {
		switch e.Kind {
		case stoppage.Planned:
			planned += e.DurationSeconds
		case stoppage.Unplanned:
			unplanned += e.DurationSeconds
		}
	}
	return planned, unplanned
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
