package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sheetbridge/internal/config"
	"sheetbridge/internal/dataprocessing"
	apierrors "sheetbridge/internal/errors"
	"sheetbridge/internal/exporter"
	"sheetbridge/internal/services"
	"sheetbridge/internal/session"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()

	cache := session.NewParseCache(time.Minute)
	store := session.NewStore(time.Minute, cache, logger)
	t.Cleanup(store.Close)

	reformat := services.NewReformatService(store, cache, dataprocessing.NewProjector(logger),
		exporter.NewExcelWriter(logger).WriteTable, logger)
	attendance := services.NewAttendanceService(store, cfg.Report.Title, nil, logger)
	errorHandler := apierrors.NewErrorHandler(logger)

	sessions := NewSessionHandler(reformat, &cfg, errorHandler, logger)
	mappings := NewMappingHandler(reformat, &cfg, errorHandler, logger)
	att := NewAttendanceHandler(attendance, &cfg, errorHandler, logger)

	srv := httptest.NewServer(SessionRoutes(sessions, mappings, att))
	t.Cleanup(srv.Close)
	return srv
}

func workbookUpload(t *testing.T, rows [][]any) (*bytes.Buffer, string) {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var wb bytes.Buffer
	require.NoError(t, f.Write(&wb))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "upload.xlsx")
	require.NoError(t, err)
	_, err = part.Write(wb.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created["session_id"].(string)
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestWorkflow_OverHTTP(t *testing.T) {
	srv := testServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/" + id

	// Upload reference and source.
	body, ctype := workbookUpload(t, [][]any{{"ID", "Full Name"}, {1, "x"}})
	resp, err := http.Post(base+"/files/reference", ctype, body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, ctype = workbookUpload(t, [][]any{{"identifier", "name"}, {1, "Alice"}, {2, "Bob"}})
	resp, err = http.Post(base+"/files/source", ctype, body)
	require.NoError(t, err)
	var uploaded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	resp.Body.Close()
	assert.Equal(t, "source", uploaded["role"])
	assert.Equal(t, float64(2), uploaded["row_count"])

	// Suggest a mapping at threshold 60.
	resp = postJSON(t, base+"/mapping/suggest", `{"threshold": 60}`)
	var mappingResp map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&mappingResp))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := mappingResp["entries"].([]any)
	require.Len(t, entries, 2)
	first := entries[0].(map[string]any)
	assert.Equal(t, "ID", first["target"])
	assert.Equal(t, "identifier", first["source"])

	// Project and preview.
	resp = postJSON(t, base+"/project", `{"fill_mode": "blank"}`)
	var projResp map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&projResp))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), projResp["row_count"])

	// Download the reformatted workbook.
	resp, err = http.Get(base + "/download/reformatted")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "reformatted.xlsx")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Full Name"}, rows[0])
}

func TestUpload_MissingFileField(t *testing.T) {
	srv := testServer(t)
	id := createSession(t, srv)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/"+id+"/files/source", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "json")
}

func TestSuggest_UnknownSessionIs404Problem(t *testing.T) {
	srv := testServer(t)

	resp := postJSON(t, srv.URL+"/not-a-session/mapping/suggest", `{}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var problem map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, "/errors/not-found", problem["type"])
	assert.Equal(t, "SESSION_NOT_FOUND", problem["error_code"])
}

func TestAttendanceReport_OverHTTP(t *testing.T) {
	srv := testServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/" + id

	body, ctype := workbookUpload(t, [][]any{
		{"Admission No", "Student Name", "Present", "Absent", "Grade"},
		{101, "Alice", 8, 2, "1A"},
		{102, "Bob", 10, 0, "1A"},
	})
	resp, err := http.Post(base+"/files/source", ctype, body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, base+"/attendance/report", `{
		"working_days": 10,
		"groups": {
			"keys": ["GRADE 1"],
			"category_column": "Grade",
			"aliases": {"1A": "GRADE 1"}
		}
	}`)
	var report map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "category", report["strategy"])
	summaries := report["summaries"].([]any)
	require.Len(t, summaries, 1)
	row := summaries[0].(map[string]any)
	assert.Equal(t, "GRADE 1", row["group"])
	averages := row["averages"].(map[string]any)
	assert.Equal(t, 90.0, averages["Attendance %"])

	// Validation failure: working_days is required and must be positive.
	resp = postJSON(t, base+"/attendance/report", `{"working_days": 0, "groups": {"keys": ["A"]}}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// CSV download carries the summary line.
	resp, err = http.Get(base + "/download/attendance.csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	csv, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(csv), "GRADE 1")
}

func TestReset_ClearsSession(t *testing.T) {
	srv := testServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/" + id

	body, ctype := workbookUpload(t, [][]any{{"A"}, {1}})
	resp, err := http.Post(base+"/files/source", ctype, body)
	require.NoError(t, err)
	resp.Body.Close()

	resp = postJSON(t, base+"/reset", "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Post-reset, the source upload is gone.
	resp = postJSON(t, base+"/mapping/suggest", `{}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
