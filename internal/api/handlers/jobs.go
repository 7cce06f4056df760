package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"jobdex/internal/extractor"
	"jobdex/internal/ingest"
	"jobdex/internal/logging"
	"jobdex/internal/storage"
	"jobdex/pkg/models"
	"jobdex/pkg/utils"
)

var validate = validator.New()

// JobStore is the slice of the storage layer the read and update
// handlers need.
type JobStore interface {
	SelectJob(ctx context.Context, id int64) (*models.JobRecord, error)
	SelectJobs(ctx context.Context, excludeRejected bool) ([]*models.JobRecord, error)
	UpdateRejected(ctx context.Context, title, company string) (bool, error)
}

// IngestJobHandler accepts a saved page and runs it through the worker
// pool. Duplicates come back as 409, extraction failures as 422.
func IngestJobHandler(poolManager *ingest.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		startTime := time.Now()
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		var req models.IngestRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to bind ingest request", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			logger.Error("Ingest request validation failed", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Processing ingest request", map[string]interface{}{
			"job_id": req.ID,
		})

		result, err := poolManager.SubmitIngest(c.Request().Context(), &req)
		if err != nil {
			logger.Error("Failed to submit ingest task", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:     "submission_failed",
				Message:   fmt.Sprintf("Failed to submit ingestion task: %v", err),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if result.Error != nil {
			return ingestErrorResponse(c, logger, result, requestID)
		}

		if result.Outcome == storage.OutcomeAlreadyExists {
			logger.Info("Job already ingested", map[string]interface{}{
				"job_id": req.ID,
			})
			return c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:     "already_exists",
				Message:   fmt.Sprintf("Job %d has already been ingested", req.ID),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		response := models.IngestResponse{
			Success:        true,
			Job:            result.Record,
			Outcome:        result.Outcome.String(),
			ProcessingTime: time.Since(startTime),
			Template:       result.Template,
			RequestID:      requestID,
		}

		logger.Info("Ingest request completed successfully", map[string]interface{}{
			"job_id":          result.Record.ID,
			"job_title":       result.Record.Title,
			"company":         result.Record.Company,
			"template":        result.Template,
			"processing_time": time.Since(startTime).String(),
		})

		return c.JSON(http.StatusCreated, response)
	}
}

func ingestErrorResponse(c echo.Context, logger logging.Logger, result *ingest.Result, requestID string) error {
	var extErr *extractor.ExtractionError
	if errors.As(result.Error, &extErr) {
		logger.Error("Extraction failed", map[string]interface{}{
			"reason": extErr.Reason,
		})
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:     "extraction_failed",
			Message:   result.Error.Error(),
			RequestID: requestID,
			Timestamp: time.Now(),
		})
	}

	var persistErr *storage.PersistenceError
	if errors.As(result.Error, &persistErr) {
		logger.Error("Persistence failed", map[string]interface{}{
			"operation": persistErr.Op,
			"error":     persistErr.Err.Error(),
		})
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:     "persistence_failed",
			Message:   result.Error.Error(),
			RequestID: requestID,
			Timestamp: time.Now(),
		})
	}

	logger.Error("Ingestion failed", map[string]interface{}{
		"error": result.Error.Error(),
	})
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:     "ingestion_failed",
		Message:   result.Error.Error(),
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}

// ListJobsHandler returns all ingested jobs, rejected ones included;
// exclude_rejected=true hides them.
func ListJobsHandler(store JobStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		excludeRejected := c.QueryParam("exclude_rejected") == "true"

		jobs, err := store.SelectJobs(c.Request().Context(), excludeRejected)
		if err != nil {
			logger.Error("Failed to list jobs", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:     "query_failed",
				Message:   "Failed to list jobs",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		response := models.JobListResponse{
			Jobs:  make([]models.JobRecord, 0, len(jobs)),
			Count: len(jobs),
		}
		for _, job := range jobs {
			response.Jobs = append(response.Jobs, *job)
		}

		return c.JSON(http.StatusOK, response)
	}
}

// GetJobHandler returns a single job by id.
func GetJobHandler(store JobStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_job_id",
				Message:   "Job id must be an integer",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		job, err := store.SelectJob(c.Request().Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:     "not_found",
				Message:   fmt.Sprintf("Job %d not found", id),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}
		if err != nil {
			logger.Error("Failed to fetch job", map[string]interface{}{
				"job_id": id,
				"error":  err.Error(),
			})
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:     "query_failed",
				Message:   "Failed to fetch job",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, job)
	}
}

// RejectJobHandler flags the first job matching title and company as
// rejected.
func RejectJobHandler(store JobStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		var req models.RejectRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		updated, err := store.UpdateRejected(c.Request().Context(), req.Title, req.Company)
		if err != nil {
			logger.Error("Failed to update reject status", map[string]interface{}{
				"title":   req.Title,
				"company": req.Company,
				"error":   err.Error(),
			})
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:     "update_failed",
				Message:   "Failed to update reject status",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Reject status update processed", map[string]interface{}{
			"title":   req.Title,
			"company": req.Company,
			"updated": updated,
		})

		return c.JSON(http.StatusOK, models.RejectResponse{Updated: updated})
	}
}
