package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// SessionRoutes assembles the /api/session route tree.
func SessionRoutes(sessions *SessionHandler, mappings *MappingHandler, attendance *AttendanceHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", sessions.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Post("/reset", sessions.Reset)
		r.Post("/files/{role}", sessions.Upload)

		r.Post("/mapping/suggest", mappings.Suggest)
		r.Put("/mapping", mappings.Update)
		r.Post("/project", mappings.Project)
		r.Get("/download/reformatted", mappings.DownloadReformatted)

		r.Post("/attendance/report", attendance.Report)
		r.Get("/download/attendance.xlsx", attendance.DownloadXLSX)
		r.Get("/download/attendance.csv", attendance.DownloadCSV)
		r.Get("/download/attendance.pdf", attendance.DownloadPDF)
	})
	return r
}
