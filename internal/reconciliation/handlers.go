package reconciliation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ksred/klear-recon/pkg/id"
	"github.com/ksred/klear-recon/pkg/response"
)

// maxDocumentSize bounds uploaded custody statements
const maxDocumentSize = 20 << 20

// ReconcileRequest carries both snapshots for a direct reconciliation
type ReconcileRequest struct {
	FundID     string            `json:"fund_id" binding:"required"`
	Internal   *InternalSnapshot `json:"internal" binding:"required"`
	Custody    *CustodySnapshot  `json:"custody" binding:"required"`
	Thresholds Overrides         `json:"thresholds"`
}

// SourcedReconcileRequest asks for a run where snapshots are acquired by
// the service
type SourcedReconcileRequest struct {
	AsOf       string    `json:"as_of"`
	Thresholds Overrides `json:"thresholds"`
}

// GinHandlers contains HTTP handlers for reconciliation endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// ReconcileSnapshotsHandler handles POST requests carrying both snapshots
func (h *GinHandlers) ReconcileSnapshotsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReconcileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		result, err := h.service.ReconcileSnapshots(c.Request.Context(), req.FundID, req.Internal, req.Custody, req.Thresholds)
		handleResult(c, result, err)
	}
}

// ReconcileFromAPIHandler handles POST requests that pull custody data from
// the bank API. URL parameter: fund_id
func (h *GinHandlers) ReconcileFromAPIHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SourcedReconcileRequest
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
				response.BadRequest(c, err.Error())
				return
			}
		}

		asOf, err := ParseAsOf(req.AsOf, time.Now())
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		result, err := h.service.ReconcileFromAPI(c.Request.Context(), c.Param("fund_id"), asOf, req.Thresholds)
		handleResult(c, result, err)
	}
}

// ReconcileFromDocumentHandler handles multipart uploads of a custody
// statement. Form fields: document (file), as_of, thresholds (JSON).
func (h *GinHandlers) ReconcileFromDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("document")
		if err != nil {
			response.BadRequest(c, "document file is required")
			return
		}
		if fileHeader.Size > maxDocumentSize {
			response.BadRequest(c, "document exceeds maximum size")
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			response.BadRequest(c, "unable to read document")
			return
		}
		defer file.Close()

		document, err := io.ReadAll(file)
		if err != nil {
			response.BadRequest(c, "unable to read document")
			return
		}

		var overrides Overrides
		if raw := c.PostForm("thresholds"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
				response.BadRequest(c, "invalid thresholds: "+err.Error())
				return
			}
		}

		asOf, err := ParseAsOf(c.PostForm("as_of"), time.Now())
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		result, err := h.service.ReconcileFromDocument(c.Request.Context(), c.Param("fund_id"), asOf, document, fileHeader.Filename, overrides)
		handleResult(c, result, err)
	}
}

// GetResultHandler handles GET requests for a stored result.
// URL parameter: reconciliation_id. Identifiers that were never minted by
// a run are answered without a store lookup.
func (h *GinHandlers) GetResultHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		reconciliationID := c.Param("reconciliation_id")
		if _, ok := id.Time(reconciliationID); !ok {
			response.NotFound(c, "reconciliation not found")
			return
		}

		result, err := h.service.GetResult(reconciliationID)
		response.Handle(c, result, err)
	}
}

// ListResultsHandler handles GET requests for a fund's run history.
// Query parameter: limit (default 50)
func (h *GinHandlers) ListResultsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				response.BadRequest(c, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		records, err := h.service.ListResults(c.Param("fund_id"), limit)
		response.Handle(c, records, err)
	}
}

// handleResult separates "the engine could not run" from everything else.
// A FAILED overall status is a successful response.
func handleResult(c *gin.Context, result *ReconciliationResult, err error) {
	switch {
	case err == nil:
		response.Success(c, result)
	case errors.Is(err, ErrInvalidThresholds),
		errors.Is(err, ErrDuplicateSecurity),
		errors.Is(err, ErrCurrencyMismatch),
		errors.Is(err, ErrInvalidSource),
		errors.Is(err, ErrMissingSnapshot):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrProviderNotConfigured):
		response.Fail(c, http.StatusNotImplemented, response.ErrCodeNotConfigured, err.Error())
	case errors.Is(err, ErrAcquisition) && !errors.Is(err, gorm.ErrRecordNotFound):
		response.BadGateway(c, err.Error())
	default:
		response.Handle(c, nil, err)
	}
}

// ParseAsOf parses a YYYY-MM-DD date, defaulting to the UTC date of now
func ParseAsOf(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errors.New("as_of must be formatted as YYYY-MM-DD")
	}
	return t, nil
}
