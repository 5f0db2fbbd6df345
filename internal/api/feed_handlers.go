package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
)

// The seven feed collections share one CRUD contract, so a single set
// of handlers is bound per descriptor instead of one copy per feed.

func (s *Server) feedList(repo repositories.FeedRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, limit := 1, 100
		if v := c.QueryParam("page"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				page = n
			}
		}
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		records, err := repo.List(c.Request().Context(), page, limit)
		if err != nil {
			s.logger.Error("Failed to list feed records", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to list records",
			})
		}
		return c.JSON(http.StatusOK, records)
	}
}

func (s *Server) feedGet(repo repositories.FeedRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		record, err := repo.GetByID(c.Request().Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return c.JSON(http.StatusNotFound, ErrorResponse{
					Error:   "not_found",
					Message: "Data not found",
				})
			}
			s.logger.Error("Failed to get feed record", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to get record",
			})
		}
		return c.JSON(http.StatusOK, record)
	}
}

func (s *Server) feedCreate(feed entities.Feed, repo repositories.FeedRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		var record entities.FeedRecord
		if err := c.Bind(&record); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid request format",
			})
		}
		if record.ID == "" {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "missing_fields",
				Message: "id is required",
			})
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now()
		}
		if record.CreatedEpoch == 0 {
			record.CreatedEpoch = record.CreatedAt.Unix()
		}
		if record.FeedName == "" {
			record.FeedName = feed.Key
		}

		if err := repo.InsertIfAbsent(c.Request().Context(), &record); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return c.JSON(http.StatusConflict, ErrorResponse{
					Error:   "duplicate_record",
					Message: "A record with this id already exists",
				})
			}
			s.logger.Error("Failed to create feed record", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to create record",
			})
		}
		return c.JSON(http.StatusCreated, record)
	}
}

func (s *Server) feedUpdate(repo repositories.FeedRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		var record entities.FeedRecord
		if err := c.Bind(&record); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid request format",
			})
		}
		record.ID = c.Param("id")

		if err := repo.Update(c.Request().Context(), &record); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return c.JSON(http.StatusNotFound, ErrorResponse{
					Error:   "not_found",
					Message: "Data not found",
				})
			}
			s.logger.Error("Failed to update feed record", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to update record",
			})
		}
		return c.JSON(http.StatusOK, record)
	}
}

func (s *Server) feedDelete(repo repositories.FeedRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := repo.Delete(c.Request().Context(), c.Param("id")); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return c.JSON(http.StatusNotFound, ErrorResponse{
					Error:   "not_found",
					Message: "Data not found",
				})
			}
			s.logger.Error("Failed to delete feed record", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to delete record",
			})
		}
		return c.JSON(http.StatusOK, MessageResponse{Message: "Data deleted successfully"})
	}
}

// feedSync handles POST /api/feeds/sync, running one sync pass on
// demand. Per-feed failures are reported, not fatal.
func (s *Server) feedSync(c echo.Context) error {
	if s.syncRunner == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "sync_unavailable",
			Message: "Feed sync is not configured",
		})
	}

	type feedSyncResult struct {
		Feed     string `json:"feed"`
		Inserted int    `json:"inserted"`
		Error    string `json:"error,omitempty"`
	}

	results := s.syncRunner.RunOnce(c.Request().Context())
	out := make([]feedSyncResult, 0, len(results))
	for _, r := range results {
		item := feedSyncResult{Feed: r.Feed.Key, Inserted: r.Inserted}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out = append(out, item)
	}
	return c.JSON(http.StatusOK, out)
}
