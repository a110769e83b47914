package study

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klokku/timestudy/internal/rest"
	"github.com/klokku/timestudy/pkg/export"
	"github.com/klokku/timestudy/pkg/session"
	"github.com/klokku/timestudy/pkg/stoppage"
	"github.com/klokku/timestudy/pkg/summary"
	log "github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StoppageDTO struct {
	Index           int     `json:"index"`
	Kind            string  `json:"kind"`
	KindLabel       string  `json:"kindLabel"`
	DurationSeconds float64 `json:"durationSeconds"`
	DurationMinutes float64 `json:"durationMinutes"`
	Description     string  `json:"description"`
}

type StoppageRequestDTO struct {
	Kind            string   `json:"kind"`
	DurationSeconds *float64 `json:"durationSeconds"`
	Description     string   `json:"description"`
}

type StudyDTO struct {
	Id            uuid.UUID     `json:"id"`
	Operator      string        `json:"operator"`
	Machine       string        `json:"machine"`
	Date          string        `json:"date"`
	Shift         string        `json:"shift"`
	StartTime     string        `json:"startTime"`
	EndTime       string        `json:"endTime"`
	InitialCount  int           `json:"initialCount"`
	FinalCount    int           `json:"finalCount"`
	UnitTime      float64       `json:"unitTime"`
	BreakTime     float64       `json:"breakTime"`
	ProducedUnits int           `json:"producedUnits"`
	CountWarning  bool          `json:"countWarning"`
	CreatedAt     time.Time     `json:"createdAt"`
	Stoppages     []StoppageDTO `json:"stoppages"`
}

type SummaryDTO struct {
	SessionMinutes       float64 `json:"sessionMinutes"`
	PlannedStopSeconds   float64 `json:"plannedStopSeconds"`
	UnplannedStopSeconds float64 `json:"unplannedStopSeconds"`
	TotalStopSeconds     float64 `json:"totalStopSeconds"`
	PlannedStopMinutes   float64 `json:"plannedStopMinutes"`
	UnplannedStopMinutes float64 `json:"unplannedStopMinutes"`
	TotalStopMinutes     float64 `json:"totalStopMinutes"`
	UtilizationPct       float64 `json:"utilizationPct"`
	ProducedUnits        int     `json:"producedUnits"`
	PlannedProduction    float64 `json:"plannedProduction"`
	PerformancePct       float64 `json:"performancePct"`
	CountWarning         bool    `json:"countWarning"`
}

type KindShareDTO struct {
	Kind    string  `json:"kind"`
	Label   string  `json:"label"`
	Seconds float64 `json:"seconds"`
}

type DescriptionShareDTO struct {
	Description string  `json:"description"`
	Minutes     float64 `json:"minutes"`
}

type ChartsDTO struct {
	ByKind            []KindShareDTO        `json:"byKind"`
	Planned           []DescriptionShareDTO `json:"planned"`
	Unplanned         []DescriptionShareDTO `json:"unplanned"`
	PlannedProduction float64               `json:"plannedProduction"`
	ActualProduction  int                   `json:"actualProduction"`
}

type TableDTO struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type ExportDTO struct {
	Path        string `json:"path"`
	DownloadUrl string `json:"downloadUrl"`
}

type PublishedDTO struct {
	SpreadsheetId string `json:"spreadsheetId"`
	Url           string `json:"url"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (handler *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, handler.service.Shifts())
}

// CreateStudy godoc
// @Summary Start a new time study
// @Tags Study
// @Accept json
// @Produce json
// @Param study body session.Form true "Session form"
// @Success 201 {object} StudyDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/study [post]
func (handler *Handler) CreateStudy(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new study")
	var form session.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	study, err := handler.service.Create(r.Context(), form)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, StudyToDTO(study))
}

func (handler *Handler) ListStudies(w http.ResponseWriter, r *http.Request) {
	studies, err := handler.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	studiesDTO := make([]StudyDTO, 0, len(studies))
	for _, study := range studies {
		studiesDTO = append(studiesDTO, StudyToDTO(study))
	}
	writeJSON(w, http.StatusOK, studiesDTO)
}

func (handler *Handler) GetStudy(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	study, err := handler.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StudyToDTO(study))
}

func (handler *Handler) DeleteStudy(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	if err := handler.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) ListStoppages(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	study, err := handler.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StoppagesToDTO(study.Stoppages))
}

// AddStoppage godoc
// @Summary Record a stoppage
// @Description Appends a planned or unplanned stoppage to the study's list
// @Tags Study
// @Accept json
// @Produce json
// @Param studyId path string true "Study ID"
// @Param stoppage body StoppageRequestDTO true "Stoppage"
// @Success 201 {array} StoppageDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/study/{studyId}/stoppage [post]
func (handler *Handler) AddStoppage(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	var request StoppageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	kind, err := stoppage.ParseKind(request.Kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if request.DurationSeconds == nil {
		writeServiceError(w, &session.ValidationError{Field: "durationSeconds", Reason: "is required"})
		return
	}

	events, err := handler.service.AddStoppage(r.Context(), id, kind, *request.DurationSeconds, request.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, StoppagesToDTO(events))
}

// ImportStoppages accepts a JSON array of stoppage records keyed either by the report column
// names or by the API field names.
func (handler *Handler) ImportStoppages(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	var records []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	events, err := handler.service.ImportStoppages(r.Context(), id, records)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, StoppagesToDTO(events))
}

func (handler *Handler) RemoveStoppage(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	// the route only admits digits, so a parse failure is an index past any list
	rawIndex := mux.Vars(r)["index"]
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeServiceError(w, fmt.Errorf("%w: index %s", ErrStoppageNotFound, rawIndex))
		return
	}
	events, err := handler.service.RemoveStoppage(r.Context(), id, index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StoppagesToDTO(events))
}

// GetSummary godoc
// @Summary Study metrics
// @Tags Study
// @Produce json
// @Param studyId path string true "Study ID"
// @Success 200 {object} SummaryDTO
// @Failure 404 {object} rest.ErrorResponse
// @Failure 422 {object} rest.ErrorResponse "Break time leaves no study duration"
// @Router /api/study/{studyId}/summary [get]
func (handler *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	sum, err := handler.service.Summary(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryToDTO(sum))
}

func (handler *Handler) GetCharts(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	charts, err := handler.service.Charts(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChartsToDTO(charts))
}

func (handler *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	table, err := handler.service.Table(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := export.RenderCSV(table)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv response: %v", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, TableDTO{Columns: table.Columns, Rows: table.Rows})
}

func (handler *Handler) ExportTable(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	path, err := handler.service.ExportTable(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exportToDTO(path))
}

func (handler *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	path, err := handler.service.ExportReport(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exportToDTO(path))
}

// PublishSheets godoc
// @Summary Publish the flat table to Google Sheets
// @Tags Study
// @Produce json
// @Param studyId path string true "Study ID"
// @Success 201 {object} PublishedDTO
// @Failure 422 {object} rest.ErrorResponse
// @Failure 424 {object} rest.ErrorResponse "Sheets publishing is not configured"
// @Router /api/study/{studyId}/export/sheets [post]
func (handler *Handler) PublishSheets(w http.ResponseWriter, r *http.Request) {
	id, ok := studyIdFromPath(w, r)
	if !ok {
		return
	}
	published, err := handler.service.PublishSheets(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, PublishedDTO{SpreadsheetId: published.SpreadsheetId, Url: published.Url})
}

func (handler *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["fileName"]
	path, err := handler.service.LocateExport(name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func StudyToDTO(study Study) StudyDTO {
	s := study.Session
	return StudyDTO{
		Id:            study.Id,
		Operator:      s.Operator,
		Machine:       s.Machine,
		Date:          s.FormattedDate(),
		Shift:         s.Shift,
		StartTime:     s.StartTime.String(),
		EndTime:       s.EndTime.String(),
		InitialCount:  s.InitialCount,
		FinalCount:    s.FinalCount,
		UnitTime:      s.UnitTime,
		BreakTime:     s.BreakTime,
		ProducedUnits: s.ProducedUnits(),
		CountWarning:  s.CountWarning(),
		CreatedAt:     study.CreatedAt,
		Stoppages:     StoppagesToDTO(study.Stoppages),
	}
}

func StoppagesToDTO(events []stoppage.Event) []StoppageDTO {
	dtos := make([]StoppageDTO, 0, len(events))
	for i, e := range events {
		dtos = append(dtos, StoppageDTO{
			Index:           i,
			Kind:            e.Kind.Code(),
			KindLabel:       e.Kind.String(),
			DurationSeconds: e.DurationSeconds,
			DurationMinutes: e.DurationMinutes(),
			Description:     e.Description,
		})
	}
	return dtos
}

func SummaryToDTO(s StudySummary) SummaryDTO {
	return SummaryDTO{
		SessionMinutes:       s.SessionMinutes,
		PlannedStopSeconds:   s.PlannedStopSeconds,
		UnplannedStopSeconds: s.UnplannedStopSeconds,
		TotalStopSeconds:     s.TotalStopSeconds,
		PlannedStopMinutes:   s.PlannedStopMinutes(),
		UnplannedStopMinutes: s.UnplannedStopMinutes(),
		TotalStopMinutes:     s.TotalStopMinutes(),
		UtilizationPct:       s.UtilizationPct,
		ProducedUnits:        s.ProducedUnits,
		PlannedProduction:    s.PlannedProduction,
		PerformancePct:       s.PerformancePct,
		CountWarning:         s.CountWarning,
	}
}

func ChartsToDTO(c Charts) ChartsDTO {
	byKind := make([]KindShareDTO, 0, len(c.Stoppages.ByKind))
	for _, share := range c.Stoppages.ByKind {
		byKind = append(byKind, KindShareDTO{Kind: share.Kind.Code(), Label: share.Kind.String(), Seconds: share.Seconds})
	}
	return ChartsDTO{
		ByKind:            byKind,
		Planned:           descriptionSharesToDTO(c.Stoppages.Planned),
		Unplanned:         descriptionSharesToDTO(c.Stoppages.Unplanned),
		PlannedProduction: c.Production.Planned,
		ActualProduction:  c.Production.Actual,
	}
}

func descriptionSharesToDTO(shares []summary.DescriptionShare) []DescriptionShareDTO {
	dtos := make([]DescriptionShareDTO, 0, len(shares))
	for _, share := range shares {
		dtos = append(dtos, DescriptionShareDTO{Description: share.Description, Minutes: share.Minutes})
	}
	return dtos
}

func exportToDTO(path string) ExportDTO {
	return ExportDTO{Path: path, DownloadUrl: "/api/export/" + filepath.Base(path)}
}

func studyIdFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["studyId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid study id", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrStudyNotFound):
		rest.WriteError(w, http.StatusNotFound, "Study not found", err.Error())
	case errors.Is(err, ErrStoppageNotFound):
		rest.WriteError(w, http.StatusNotFound, "Stoppage not found", err.Error())
	case errors.Is(err, export.ErrExportNotFound):
		rest.WriteError(w, http.StatusNotFound, "Export not found", err.Error())
	case errors.Is(err, session.ErrInvalidTimeWindow),
		errors.Is(err, session.ErrInvalidField),
		errors.Is(err, stoppage.ErrUnknownKind),
		errors.Is(err, stoppage.ErrInvalidDuration):
		rest.WriteError(w, http.StatusBadRequest, "Invalid input", validationDetails(err))
	case errors.Is(err, summary.ErrInvalidSessionWindow):
		rest.WriteError(w, http.StatusUnprocessableEntity, "Study duration is not positive",
			"break time must be shorter than the time between start and end: "+err.Error())
	case errors.Is(err, export.ErrMissingDependency):
		rest.WriteError(w, http.StatusFailedDependency, "Export target unavailable", err.Error())
	default:
		log.Errorf("study request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal error", err.Error())
	}
}

func validationDetails(err error) string {
	parts := session.ValidationErrors(err)
	messages := make([]string, 0, len(parts))
	for _, part := range parts {
		messages = append(messages, part.Error())
	}
	return strings.Join(messages, "; ")
}
