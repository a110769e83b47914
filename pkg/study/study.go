package study

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/timestudy/pkg/session"
	"github.com/klokku/timestudy/pkg/stoppage"
)

var ErrStudyNotFound = errors.New("study not found")
var ErrStoppageNotFound = errors.New("stoppage not found")

// Study is one observed session together with the stoppages recorded during it, in
// entry order.
type Study struct {
	Id        uuid.UUID
	Session   session.Session
	Stoppages []stoppage.Event
	CreatedAt time.Time
}

// Title names the study in exported documents.
func (s Study) Title() string {
	return "Etüt " + s.Session.Machine + " " + s.Session.FormattedDate() + " " + s.Session.Shift
}

func cloneStoppages(events []stoppage.Event) []stoppage.Event {
	if events == nil {
		return []stoppage.Event{}
	}
	out := make([]stoppage.Event, len(events))
	copy(out, events)
	return out
}
