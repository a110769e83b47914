package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {
	h := deps.StudyHandler

	r.HandleFunc("/api/shifts", h.ListShifts).Methods("GET")

	// Study
	r.HandleFunc("/api/study", h.CreateStudy).Methods("POST")
	r.HandleFunc("/api/study", h.ListStudies).Methods("GET")
	r.HandleFunc("/api/study/{studyId}", h.GetStudy).Methods("GET")
	r.HandleFunc("/api/study/{studyId}", h.DeleteStudy).Methods("DELETE")

	// Stoppages
	r.HandleFunc("/api/study/{studyId}/stoppage", h.AddStoppage).Methods("POST")
	r.HandleFunc("/api/study/{studyId}/stoppage", h.ListStoppages).Methods("GET")
	r.HandleFunc("/api/study/{studyId}/stoppage/import", h.ImportStoppages).Methods("POST")
	r.HandleFunc("/api/study/{studyId}/stoppage/{index:[0-9]+}", h.RemoveStoppage).Methods("DELETE")

	// Results
	r.HandleFunc("/api/study/{studyId}/summary", h.GetSummary).Methods("GET")
	r.HandleFunc("/api/study/{studyId}/breakdown", h.GetCharts).Methods("GET")
	r.HandleFunc("/api/study/{studyId}/table", h.GetTable).Methods("GET")

	// Exports
	r.HandleFunc("/api/study/{studyId}/export/table", h.ExportTable).Methods("POST")
	r.HandleFunc("/api/study/{studyId}/export/report", h.ExportReport).Methods("POST")
	r.HandleFunc("/api/study/{studyId}/export/sheets", h.PublishSheets).Methods("POST")
	r.HandleFunc("/api/export/{fileName}", h.DownloadExport).Methods("GET")
}
