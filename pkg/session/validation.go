package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/klokku/timestudy/internal/utils"
)

var ErrInvalidTimeWindow = errors.New("end time must be after start time")
var ErrInvalidField = errors.New("invalid field")

// ValidationError describes a single rejected form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidField
}

// Form is the raw study input as entered by the operator.
type Form struct {
	Operator     string   `json:"operator"`
	Machine      string   `json:"machine"`
	Date         string   `json:"date,omitempty"`
	Shift        string   `json:"shift"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
	InitialCount int      `json:"initialCount"`
	FinalCount   int      `json:"finalCount"`
	UnitTime     *float64 `json:"unitTime"`
	BreakTime    float64  `json:"breakTime,omitempty"`
}

type Validator struct {
	shifts []string
	clock  utils.Clock
}

// NewValidator creates a validator accepting the given shift names. An empty list accepts any shift.
func NewValidator(shifts []string, clock utils.Clock) *Validator {
	return &Validator{shifts: shifts, clock: clock}
}

func (v *Validator) Shifts() []string {
	return slices.Clone(v.shifts)
}

// Validate turns a form into a Session. All problems are reported together, joined into
// one error; errors.Is matches ErrInvalidTimeWindow and ErrInvalidField.
func (v *Validator) Validate(form Form) (Session, error) {
	var errs []error
	fieldErr := func(field, reason string) {
		errs = append(errs, &ValidationError{Field: field, Reason: reason})
	}

	operator := strings.TrimSpace(form.Operator)
	if operator == "" {
		fieldErr("operator", "is required")
	}
	machine := strings.TrimSpace(form.Machine)
	if machine == "" {
		fieldErr("machine", "is required")
	}

	date := v.today()
	if form.Date != "" {
		parsed, err := time.Parse(DateLayout, form.Date)
		if err != nil {
			fieldErr("date", fmt.Sprintf("must be in %s format", DateLayout))
		} else {
			date = parsed
		}
	}

	if form.Shift == "" {
		fieldErr("shift", "is required")
	} else if len(v.shifts) > 0 && !slices.Contains(v.shifts, form.Shift) {
		fieldErr("shift", fmt.Sprintf("must be one of %s", strings.Join(v.shifts, ", ")))
	}

	start, startErr := ParseTimeOfDay(form.StartTime)
	if startErr != nil {
		fieldErr("startTime", startErr.Error())
	}
	end, endErr := ParseTimeOfDay(form.EndTime)
	if endErr != nil {
		fieldErr("endTime", endErr.Error())
	}
	if startErr == nil && endErr == nil && !start.Before(end) {
		errs = append(errs, fmt.Errorf("%w: start %s, end %s", ErrInvalidTimeWindow, start, end))
	}

	if form.InitialCount < 0 {
		fieldErr("initialCount", "must not be negative")
	}
	if form.FinalCount < 0 {
		fieldErr("finalCount", "must not be negative")
	}
	if form.UnitTime == nil {
		fieldErr("unitTime", "is required")
	} else if *form.UnitTime <= 0 {
		fieldErr("unitTime", "must be greater than zero")
	}
	if form.BreakTime < 0 {
		fieldErr("breakTime", "must not be negative")
	}

	if len(errs) > 0 {
		return Session{}, errors.Join(errs...)
	}

	return Session{
		Operator:     operator,
		Machine:      machine,
		Date:         date,
		Shift:        form.Shift,
		StartTime:    start,
		EndTime:      end,
		InitialCount: form.InitialCount,
		FinalCount:   form.FinalCount,
		UnitTime:     *form.UnitTime,
		BreakTime:    form.BreakTime,
	}, nil
}

func (v *Validator) today() time.Time {
	y, m, d := v.clock.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ToForm renders a Session back into its form representation.
func ToForm(s Session) Form {
	unitTime := s.UnitTime
	return Form{
		Operator:     s.Operator,
		Machine:      s.Machine,
		Date:         s.FormattedDate(),
		Shift:        s.Shift,
		StartTime:    s.StartTime.String(),
		EndTime:      s.EndTime.String(),
		InitialCount: s.InitialCount,
		FinalCount:   s.FinalCount,
		UnitTime:     &unitTime,
		BreakTime:    s.BreakTime,
	}
}

// ValidationErrors flattens a joined validation error into its parts, for reporting.
func ValidationErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
