package stoppage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrUnknownKind = errors.New("unknown stoppage kind")
var ErrInvalidDuration = errors.New("invalid stoppage duration")

// Kind classifies a stoppage as expected (planned) or a loss against the plan (unplanned).
type Kind int

const (
	Planned Kind = iota + 1
	Unplanned
)

func (k Kind) String() string {
	switch k {
	case Planned:
		return "Planlı"
	case Unplanned:
		return "Plansız"
	default:
		return ""
	}
}

// ParseKind accepts the display names used on reports and the lowercase API names.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "planlı", "planli", "planned":
		return Planned, nil
	case "plansız", "plansiz", "unplanned":
		return Unplanned, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Code is the stable lowercase name used in JSON and storage.
func (k Kind) Code() string {
	switch k {
	case Planned:
		return "planned"
	case Unplanned:
		return "unplanned"
	default:
		return ""
	}
}

func (k Kind) MarshalJSON() ([]byte, error) {
	code := k.Code()
	if code == "" {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return json.Marshal(code)
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Event is a single stoppage recorded during a study.
type Event struct {
	Kind            Kind
	DurationSeconds float64
	Description     string
}

func New(kind Kind, durationSeconds float64, description string) (Event, error) {
	if kind != Planned && kind != Unplanned {
		return Event{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	if durationSeconds < 0 || math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidDuration, durationSeconds)
	}
	return Event{Kind: kind, DurationSeconds: durationSeconds, Description: description}, nil
}

// DurationMinutes is the duration in minutes rounded to two decimals.
func (e Event) DurationMinutes() float64 {
	return math.Round(e.DurationSeconds/60*100) / 100
}

// Record field names written by the first versions of the tool. The kind was called
// "Hata Türü" before it was renamed to "Duruş Türü".
const (
	RecordKind       = "Duruş Türü"
	RecordLegacyKind = "Hata Türü"
	RecordDuration   = "Süre (sn)"
	RecordDesc       = "Açıklama"
)

// FromRecord builds an Event from a loosely typed record, reading the current field names
// first and falling back to the legacy and API names.
func FromRecord(record map[string]any) (Event, error) {
	kindValue, ok := firstPresent(record, RecordKind, RecordLegacyKind, "kind", "errorType")
	if !ok {
		return Event{}, fmt.Errorf("%w: missing kind", ErrUnknownKind)
	}
	kindName, ok := kindValue.(string)
	if !ok {
		return Event{}, fmt.Errorf("%w: %v", ErrUnknownKind, kindValue)
	}
	kind, err := ParseKind(kindName)
	if err != nil {
		return Event{}, err
	}

	duration := 0.0
	if v, ok := firstPresent(record, RecordDuration, "durationSeconds"); ok {
		duration, err = toFloat(v)
		if err != nil {
			return Event{}, err
		}
	}

	description := ""
	if v, ok := firstPresent(record, RecordDesc, "description"); ok && v != nil {
		description = fmt.Sprint(v)
	}

	return New(kind, duration, description)
}

// FromRecords normalizes a list of records, failing on the first invalid one.
func FromRecords(records []map[string]any) ([]Event, error) {
	events := make([]Event, 0, len(records))
	for i, record := range records {
		event, err := FromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// ToRecord is the inverse of FromRecord, always using the current field names.
func (e Event) ToRecord() map[string]any {
	return map[string]any{
		RecordKind:     e.Kind.String(),
		RecordDuration: e.DurationSeconds,
		RecordDesc:     e.Description,
	}
}

type eventJSON struct {
	Kind            *Kind   `json:"kind,omitempty"`
	ErrorType       *Kind   `json:"errorType,omitempty"`
	DurationSeconds float64 `json:"durationSeconds"`
	Description     string  `json:"description"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	kind := e.Kind
	return json.Marshal(eventJSON{
		Kind:            &kind,
		DurationSeconds: e.DurationSeconds,
		Description:     e.Description,
	})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind := raw.Kind
	if kind == nil {
		kind = raw.ErrorType
	}
	if kind == nil {
		return fmt.Errorf("%w: missing kind", ErrUnknownKind)
	}
	event, err := New(*kind, raw.DurationSeconds, raw.Description)
	if err != nil {
		return err
	}
	*e = event
	return nil
}

func firstPresent(record map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := record[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		if strings.TrimSpace(n) == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrInvalidDuration, v)
}
