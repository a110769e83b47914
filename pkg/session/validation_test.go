package session

import (
	"testing"
	"time"

	"github.com/klokku/timestudy/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shifts = []string{"1. Vardiya", "2. Vardiya", "3. Vardiya"}
var clock = &utils.MockClock{FixedNow: time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC)}

func unitTime(v float64) *float64 {
	return &v
}

func validForm() Form {
	return Form{
		Operator:     "Ayşe Yılmaz",
		Machine:      "Dikiş-04",
		Date:         "2025-03-12",
		Shift:        "1. Vardiya",
		StartTime:    "08:00",
		EndTime:      "16:00",
		InitialCount: 0,
		FinalCount:   100,
		UnitTime:     unitTime(4),
		BreakTime:    30,
	}
}

func TestValidator_Validate(t *testing.T) {
	validator := NewValidator(shifts, clock)

	t.Run("should build a session from a complete form", func(t *testing.T) {
		// when
		s, err := validator.Validate(validForm())

		// then
		require.NoError(t, err)
		assert.Equal(t, "Ayşe Yılmaz", s.Operator)
		assert.Equal(t, "Dikiş-04", s.Machine)
		assert.Equal(t, time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC), s.Date)
		assert.Equal(t, NewTimeOfDay(8, 0, 0), s.StartTime)
		assert.Equal(t, NewTimeOfDay(16, 0, 0), s.EndTime)
		assert.Equal(t, 4.0, s.UnitTime)
		assert.Equal(t, 30.0, s.BreakTime)
		assert.Equal(t, 480.0, s.ElapsedMinutes())
	})

	t.Run("should default date to today and break to zero", func(t *testing.T) {
		form := validForm()
		form.Date = ""
		form.BreakTime = 0

		s, err := validator.Validate(form)

		require.NoError(t, err)
		assert.Equal(t, "2025-03-14", s.FormattedDate())
		assert.Equal(t, 0.0, s.BreakTime)
	})

	t.Run("should reject end time equal to start time", func(t *testing.T) {
		form := validForm()
		form.EndTime = "08:00"

		_, err := validator.Validate(form)

		assert.ErrorIs(t, err, ErrInvalidTimeWindow)
	})

	t.Run("should reject end time before start time", func(t *testing.T) {
		form := validForm()
		form.StartTime = "16:00"
		form.EndTime = "08:00:00"

		_, err := validator.Validate(form)

		assert.ErrorIs(t, err, ErrInvalidTimeWindow)
		assert.NotErrorIs(t, err, ErrInvalidField)
	})

	t.Run("should report every missing field", func(t *testing.T) {
		form := validForm()
		form.Operator = "  "
		form.Machine = ""
		form.UnitTime = nil

		_, err := validator.Validate(form)

		require.ErrorIs(t, err, ErrInvalidField)
		errs := ValidationErrors(err)
		assert.Len(t, errs, 3)
		var fields []string
		for _, e := range errs {
			var ve *ValidationError
			require.ErrorAs(t, e, &ve)
			fields = append(fields, ve.Field)
		}
		assert.Equal(t, []string{"operator", "machine", "unitTime"}, fields)
	})

	t.Run("should reject shift outside configured list", func(t *testing.T) {
		form := validForm()
		form.Shift = "4. Vardiya"

		_, err := validator.Validate(form)

		assert.ErrorIs(t, err, ErrInvalidField)
		assert.ErrorContains(t, err, "shift")
	})

	t.Run("should accept any shift when none are configured", func(t *testing.T) {
		form := validForm()
		form.Shift = "Gece"

		s, err := NewValidator(nil, clock).Validate(form)

		require.NoError(t, err)
		assert.Equal(t, "Gece", s.Shift)
	})

	t.Run("should reject non positive unit time and negative values", func(t *testing.T) {
		form := validForm()
		form.UnitTime = unitTime(0)
		form.BreakTime = -5
		form.InitialCount = -1

		_, err := validator.Validate(form)

		assert.Len(t, ValidationErrors(err), 3)
	})

	t.Run("should reject malformed times and date", func(t *testing.T) {
		form := validForm()
		form.StartTime = "8am"
		form.Date = "12.03.2025"

		_, err := validator.Validate(form)

		assert.ErrorIs(t, err, ErrInvalidField)
		assert.NotErrorIs(t, err, ErrInvalidTimeWindow)
		assert.Len(t, ValidationErrors(err), 2)
	})
}

func TestSession_ProducedUnits(t *testing.T) {
	tests := []struct {
		initial, final int
		want           int
		warning        bool
	}{
		{0, 100, 100, false},
		{40, 40, 0, false},
		{120, 100, 0, true},
		{0, 0, 0, false},
	}
	for _, tt := range tests {
		s := Session{InitialCount: tt.initial, FinalCount: tt.final}
		assert.Equal(t, tt.want, s.ProducedUnits())
		assert.Equal(t, tt.warning, s.CountWarning())
	}
}

func TestToForm(t *testing.T) {
	validator := NewValidator(shifts, clock)
	s, err := validator.Validate(validForm())
	require.NoError(t, err)

	again, err := validator.Validate(ToForm(s))

	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:20")
	require.NoError(t, err)
	assert.Equal(t, "09:20:00", tod.String())

	tod, err = ParseTimeOfDay("23:59:59")
	require.NoError(t, err)
	assert.Equal(t, 23, tod.Hour())
	assert.Equal(t, 59, tod.Second())

	_, err = ParseTimeOfDay("24:10")
	assert.Error(t, err)

	assert.Equal(t, 20.0, NewTimeOfDay(9, 0, 0).MinutesUntil(NewTimeOfDay(9, 20, 0)))
}
