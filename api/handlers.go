package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"labrat/analysis"
	"labrat/domain/table"
	"labrat/export"
	"labrat/ingest"
	"labrat/internal/errors"
	"labrat/session"
)

// uploadResponse echoes the dataset profile back to the client so it
// can build column pickers without a second round trip.
type uploadResponse struct {
	SessionID string      `json:"session_id"`
	Filename  string      `json:"filename"`
	NRows     int         `json:"n_rows"`
	Columns   interface{} `json:"columns"`
	Preview   interface{} `json:"preview"`
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, errors.InvalidInput("No file uploaded. Send the dataset as multipart field 'file'."))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		s.respondError(c, errors.Wrap(err, "open uploaded file"))
		return
	}
	defer f.Close()

	var parsed parseResult
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".csv":
		parsed.table, parsed.header, err = ingest.ParseCSV(f)
	case ".xlsx", ".xls":
		parsed.table, parsed.header, err = ingest.ParseXLSX(f)
	default:
		err = errors.InvalidInput("Unsupported file type. Upload a .csv or .xlsx file.")
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	columns := ingest.Profile(parsed.table, parsed.header)
	ingest.Normalize(parsed.table, columns)

	ds := &session.Dataset{
		Filename:  fileHeader.Filename,
		Columns:   columns,
		Data:      parsed.table,
		RowCount:  len(parsed.table),
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.store.Create(c.Request.Context(), ds)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info("uploaded %s: %d rows, %d columns, session %s",
		fileHeader.Filename, ds.RowCount, len(columns), id)

	c.JSON(http.StatusOK, uploadResponse{
		SessionID: id,
		Filename:  fileHeader.Filename,
		NRows:     ds.RowCount,
		Columns:   columns,
		Preview:   ingest.Preview(parsed.table, ingest.PreviewRows),
	})
}

func (s *Server) handleSuggest(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput("session_id is required"))
		return
	}

	ds, err := s.store.Get(c.Request.Context(), req.SessionID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": s.suggester.Suggest(ds.Columns, ds.Data),
	})
}

// Analysis request shapes. Column parameters are validated by the
// procedures themselves; binding only enforces presence.

type descriptiveRequest struct {
	SessionID string   `json:"session_id" binding:"required"`
	Columns   []string `json:"columns"`
}

type groupedRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	GroupCol  string `json:"group_col" binding:"required"`
	ValueCol  string `json:"value_col" binding:"required"`
}

type pairRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	ColA      string `json:"col_a" binding:"required"`
	ColB      string `json:"col_b" binding:"required"`
}

type doseRequest struct {
	SessionID        string `json:"session_id" binding:"required"`
	ConcentrationCol string `json:"concentration_col" binding:"required"`
	ResponseCol      string `json:"response_col" binding:"required"`
}

type survivalRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	TimeCol   string `json:"time_col" binding:"required"`
	EventCol  string `json:"event_col" binding:"required"`
	GroupCol  string `json:"group_col"`
}

func (s *Server) handleDescriptive(c *gin.Context) {
	var req descriptiveRequest
	if !s.bind(c, &req) {
		return
	}
	s.runAnalysis(c, req.SessionID, func(ds *session.Dataset) (analysis.Result, error) {
		columns := req.Columns
		if len(columns) == 0 {
			for _, col := range ds.Columns {
				columns = append(columns, col.Name)
			}
		}
		return analysis.DescriptiveStatistics(ds.Data, columns)
	})
}

func (s *Server) handleTwoGroup(c *gin.Context) {
	var req groupedRequest
	if !s.bind(c, &req) {
		return
	}
	s.runAnalysis(c, req.SessionID, func(ds *session.Dataset) (analysis.Result, error) {
		return analysis.TwoGroupComparison(ds.Data, req.GroupCol, req.ValueCol)
	})
}

func (s *Server) handleAnova(c *gin.Context) {
	var req groupedRequest
	if !s.bind(c, &req) {
		return
	}
	s.runAnalysis(c, req.SessionID, func(ds *session.Dataset) (analysis.Result, error) {
		return analysis.OneWayAnova(ds.Data, req.GroupCol, req.ValueCol)
	})
}

func (s *Server) handleCorrelation(c *gin.Context) {
	var req pairRequest
	if !s.bind(c, &req) {
		return
	}
	s.runAnalysis(c, req.SessionID, func(ds *session.Dataset) (analysis.Result, error) {
		return analysis.Correlation(ds.Data, req.ColA, req.ColB)
	})
}

func (s *Server) handleRegression(c *gin.Context) {
	var req pairRequest
	if !s.bind(c, &req) {
		return
	}
	s.runAnalysis(c, req.SessionID, func(ds *session.Dataset) (analysis.Result, error) {
		return analysis.LinearRegression(ds.Data, req.ColA, req.ColB)
	})
}

func (s *Server) handleChiSquare(c *gin.Context) {
	var req pairRequest
	if !s.bind(c, &req) {
		return
	}
	s.runAnalysis(c, req.SessionID, func(ds *session.Dataset) (analysis.Result, error) {
		return analysis.ChiSquare(ds.Data, req.ColA, req.ColB)
	})
}

func (s *Server) handleDoseResponse(c *gin.Context) {
	var req doseRequest
	if !s.bind(c, &req) {
		return
	}
	s.runAnalysis(c, req.SessionID, func(ds *session.Dataset) (analysis.Result, error) {
		return analysis.DoseResponse(ds.Data, req.ConcentrationCol, req.ResponseCol)
	})
}

func (s *Server) handleSurvival(c *gin.Context) {
	var req survivalRequest
	if !s.bind(c, &req) {
		return
	}
	s.runAnalysis(c, req.SessionID, func(ds *session.Dataset) (analysis.Result, error) {
		return analysis.KaplanMeier(ds.Data, req.TimeCol, req.EventCol, req.GroupCol)
	})
}

// runAnalysis loads the session, executes the procedure, stores the
// result for later export, and writes the response. A failed store
// save is logged but does not fail the analysis.
func (s *Server) runAnalysis(c *gin.Context, sessionID string, run func(*session.Dataset) (analysis.Result, error)) {
	ctx := c.Request.Context()
	ds, err := s.store.Get(ctx, sessionID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	result, err := run(ds)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if err := ds.SetResult(result.Kind(), result); err != nil {
		s.logger.Warn("could not encode %s result for session %s: %v", result.Kind(), sessionID, err)
	} else if err := s.store.Save(ctx, sessionID, ds); err != nil {
		s.logger.Warn("could not persist %s result for session %s: %v", result.Kind(), sessionID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"test":   result.Kind(),
		"result": result,
	})
}

func (s *Server) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.respondError(c, errors.InvalidInput("Invalid request body: "+err.Error()))
		return false
	}
	return true
}

// Export handlers. The result to export must have been produced in this
// session; re-running tests at export time would race dataset TTLs.

func (s *Server) exportTarget(c *gin.Context) (*session.Dataset, string, bool) {
	sessionID := c.Query("session_id")
	test := c.Query("test")
	if sessionID == "" || test == "" {
		s.respondError(c, errors.InvalidInput("session_id and test query parameters are required"))
		return nil, "", false
	}

	ds, err := s.store.Get(c.Request.Context(), sessionID)
	if err != nil {
		s.respondError(c, err)
		return nil, "", false
	}
	if _, ok := ds.Results[test]; !ok {
		s.respondError(c, errors.InvalidInput(
			fmt.Sprintf("No stored result for test %q. Run the analysis first.", test)))
		return nil, "", false
	}
	return ds, test, true
}

func (s *Server) handleExportCSV(c *gin.Context) {
	ds, test, ok := s.exportTarget(c)
	if !ok {
		return
	}
	out, err := export.CSV(ds.Results[test])
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.csv", baseName(ds.Filename), test))
	c.Data(http.StatusOK, "text/csv", out)
}

func (s *Server) handleExportJSON(c *gin.Context) {
	ds, test, ok := s.exportTarget(c)
	if !ok {
		return
	}
	out, err := export.JSON(ds.Results[test])
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.json", baseName(ds.Filename), test))
	c.Data(http.StatusOK, "application/json", out)
}

func (s *Server) handleExportReport(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		s.respondError(c, errors.InvalidInput("session_id query parameter is required"))
		return
	}
	ds, err := s.store.Get(c.Request.Context(), sessionID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", export.ReportHTML(ds, time.Now()))
}

func baseName(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// parseResult groups the two parser outputs so the upload handler can
// switch on file type without repeated declarations.
type parseResult struct {
	table  table.Table
	header []string
}
