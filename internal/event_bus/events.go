package event_bus

import "github.com/google/uuid"

const (
	StudyUpdatedType  EventType = "study.updated"
	StudyExportedType EventType = "study.exported"
)

type StudyChange string

const (
	StudyCreated         StudyChange = "created"
	StudyDeleted         StudyChange = "deleted"
	StudyStoppageAdded   StudyChange = "stoppage.added"
	StudyStoppageRemoved StudyChange = "stoppage.removed"
)

type StudyUpdated struct {
	StudyId uuid.UUID
	Change  StudyChange
	// StoppageCount is the length of the stoppage list after the change.
	StoppageCount int
}

type StudyExported struct {
	StudyId uuid.UUID
	// Target is one of "table", "report" or "sheets".
	Target string
	// Location is a file path for xlsx exports and a spreadsheet url for Sheets.
	Location string
}
