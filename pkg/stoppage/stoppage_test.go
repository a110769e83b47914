package stoppage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"Planlı", Planned},
		{"planned", Planned},
		{" PLANNED ", Planned},
		{"Plansız", Unplanned},
		{"unplanned", Unplanned},
		{"plansiz", Unplanned},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, err := ParseKind(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}

	_, err := ParseKind("Arıza")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNew(t *testing.T) {
	t.Run("should reject negative duration", func(t *testing.T) {
		_, err := New(Planned, -1, "setup")
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("should reject unknown kind", func(t *testing.T) {
		_, err := New(Kind(7), 10, "setup")
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("should accept zero duration", func(t *testing.T) {
		event, err := New(Unplanned, 0, "jam")
		require.NoError(t, err)
		assert.Equal(t, 0.0, event.DurationSeconds)
	})
}

func TestEvent_DurationMinutes(t *testing.T) {
	assert.Equal(t, 10.0, Event{DurationSeconds: 600}.DurationMinutes())
	assert.Equal(t, 0.33, Event{DurationSeconds: 20}.DurationMinutes())
	assert.Equal(t, 1.67, Event{DurationSeconds: 100}.DurationMinutes())
}

func TestFromRecord(t *testing.T) {
	t.Run("should read current field names", func(t *testing.T) {
		// given
		record := map[string]any{"Duruş Türü": "Planlı", "Süre (sn)": 600, "Açıklama": "Kalıp değişimi"}

		// when
		event, err := FromRecord(record)

		// then
		require.NoError(t, err)
		assert.Equal(t, Event{Kind: Planned, DurationSeconds: 600, Description: "Kalıp değişimi"}, event)
	})

	t.Run("should fall back to legacy kind field", func(t *testing.T) {
		record := map[string]any{"Hata Türü": "Plansız", "Süre (sn)": 45.5, "Açıklama": "Malzeme bekleme"}

		event, err := FromRecord(record)

		require.NoError(t, err)
		assert.Equal(t, Unplanned, event.Kind)
		assert.Equal(t, 45.5, event.DurationSeconds)
	})

	t.Run("should prefer current name when both are present", func(t *testing.T) {
		record := map[string]any{"Duruş Türü": "Planlı", "Hata Türü": "Plansız"}

		event, err := FromRecord(record)

		require.NoError(t, err)
		assert.Equal(t, Planned, event.Kind)
	})

	t.Run("should default missing duration and description", func(t *testing.T) {
		record := map[string]any{"Duruş Türü": "Planlı", "Süre (sn)": nil}

		event, err := FromRecord(record)

		require.NoError(t, err)
		assert.Equal(t, 0.0, event.DurationSeconds)
		assert.Empty(t, event.Description)
	})

	t.Run("should fail without any kind field", func(t *testing.T) {
		_, err := FromRecord(map[string]any{"Süre (sn)": 10})
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("should fail on non numeric duration", func(t *testing.T) {
		_, err := FromRecord(map[string]any{"Duruş Türü": "Planlı", "Süre (sn)": "on"})
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})
}

func TestFromRecords(t *testing.T) {
	events, err := FromRecords([]map[string]any{
		{"Duruş Türü": "Planlı", "Süre (sn)": 60, "Açıklama": "a"},
		{"Hata Türü": "Plansız", "Süre (sn)": 30, "Açıklama": "b"},
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, Planned, events[0].Kind)
	assert.Equal(t, Unplanned, events[1].Kind)

	_, err = FromRecords([]map[string]any{{"Duruş Türü": "x"}})
	assert.ErrorContains(t, err, "record 0")
}

func TestEvent_ToRecord(t *testing.T) {
	record := Event{Kind: Unplanned, DurationSeconds: 30, Description: "jam"}.ToRecord()

	assert.Equal(t, "Plansız", record[RecordKind])
	assert.NotContains(t, record, RecordLegacyKind)

	event, err := FromRecord(record)
	require.NoError(t, err)
	assert.Equal(t, Unplanned, event.Kind)
}

func TestEvent_JSON(t *testing.T) {
	t.Run("should encode canonical kind name", func(t *testing.T) {
		data, err := json.Marshal(Event{Kind: Planned, DurationSeconds: 600, Description: "setup"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"kind":"planned","durationSeconds":600,"description":"setup"}`, string(data))
	})

	t.Run("should decode legacy errorType field", func(t *testing.T) {
		var event Event
		err := json.Unmarshal([]byte(`{"errorType":"Plansız","durationSeconds":12,"description":"jam"}`), &event)
		require.NoError(t, err)
		assert.Equal(t, Unplanned, event.Kind)
	})

	t.Run("should reject missing kind", func(t *testing.T) {
		var event Event
		err := json.Unmarshal([]byte(`{"durationSeconds":12}`), &event)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("should reject negative duration", func(t *testing.T) {
		var event Event
		err := json.Unmarshal([]byte(`{"kind":"planned","durationSeconds":-3}`), &event)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})
}
