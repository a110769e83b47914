package session

import "time"

const DateLayout = "2006-01-02"

// Session holds the attributes of one time study. It is built once through Validator and
// not modified afterwards.
type Session struct {
	Operator     string
	Machine      string
	Date         time.Time
	Shift        string
	StartTime    TimeOfDay
	EndTime      TimeOfDay
	InitialCount int
	FinalCount   int
	// UnitTime is the cycle time of one unit in minutes.
	UnitTime float64
	// BreakTime is the total break in minutes, excluded from the study duration.
	BreakTime float64
}

// ProducedUnits never goes below zero, a final count lower than the initial one is only a warning.
func (s Session) ProducedUnits() int {
	return max(0, s.FinalCount-s.InitialCount)
}

// CountWarning reports a final count lower than the initial count.
func (s Session) CountWarning() bool {
	return s.FinalCount < s.InitialCount
}

func (s Session) ElapsedMinutes() float64 {
	return s.StartTime.MinutesUntil(s.EndTime)
}

func (s Session) FormattedDate() string {
	return s.Date.Format(DateLayout)
}
