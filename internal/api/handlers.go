package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
	"github.com/oncokb/oncokb-transcript-sub003/internal/middleware"
	"github.com/oncokb/oncokb-transcript-sub003/internal/service"
)

type coder interface {
	Code() string
}

// errorStatus maps an error to its HTTP status and APIError code.
func errorStatus(err error) (int, string) {
	var (
		validationErr *domain.ValidationError
		pathErr       *domain.PathResolutionError
		drugErr       *domain.UnresolvedDrugError
		typeErr       *domain.UnhandledEvidenceTypeError
		subErr        *domain.SubmissionError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Code()
	case errors.As(err, &pathErr):
		return http.StatusUnprocessableEntity, pathErr.Code()
	case errors.As(err, &drugErr):
		return http.StatusUnprocessableEntity, drugErr.Code()
	case errors.As(err, &typeErr):
		return http.StatusUnprocessableEntity, typeErr.Code()
	case errors.As(err, &subErr):
		return http.StatusBadGateway, subErr.Code()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.ErrNotFoundCode
	case errors.Is(err, service.ErrSubmissionDisabled), errors.Is(err, service.ErrHistoryDisabled):
		return http.StatusServiceUnavailable, domain.ErrInternalServer
	}
	var c coder
	if errors.As(err, &c) {
		return http.StatusInternalServerError, c.Code()
	}
	return http.StatusInternalServerError, domain.ErrInternalServer
}

// newAPIError builds the error body for err.
func newAPIError(c *gin.Context, err error) (int, *domain.APIError) {
	status, code := errorStatus(err)
	message := http.StatusText(status)
	if status < http.StatusInternalServerError || status == http.StatusBadGateway || status == http.StatusServiceUnavailable {
		message = err.Error()
	}
	return status, domain.NewAPIError(code, message, "", c.GetString(middleware.CorrelationIDKey))
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, apiErr := newAPIError(c, err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("correlation_id", apiErr.RequestID).Error("Request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, apiErr)
}

func (s *Server) badRequest(c *gin.Context, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewAPIError(
		domain.ErrInvalidInput, message, details, c.GetString(middleware.CorrelationIDKey),
	))
}

func (s *Server) serviceUnavailable(c *gin.Context, component string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, domain.NewAPIError(
		domain.ErrInternalServer, component+" is not configured", "", c.GetString(middleware.CorrelationIDKey),
	))
}

// handleResolve classifies and resolves one edit without forwarding it.
func (s *Server) handleResolve(c *gin.Context) {
	var req domain.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "Invalid resolve request", err)
		return
	}

	result, err := s.deps.Service.Resolve(c.Request.Context(), &req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleSubmit resolves, persists and forwards one edit.
func (s *Server) handleSubmit(c *gin.Context) {
	var req domain.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "Invalid submit request", err)
		return
	}

	result, err := s.deps.Service.Submit(c.Request.Context(), &req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleGetLatest returns the latest submission of a data uuid.
func (s *Server) handleGetLatest(c *gin.Context) {
	submission, err := s.deps.Service.Latest(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

// handleGetHistory returns the submission history of a data uuid.
func (s *Server) handleGetHistory(c *gin.Context) {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		s.badRequest(c, "Invalid limit", err)
		return
	}

	history, err := s.deps.Service.History(c.Request.Context(), c.Param("uuid"), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data_uuid":   c.Param("uuid"),
		"submissions": history,
		"count":       len(history),
	})
}

// handleListDrugs pages through the drug registry.
func (s *Server) handleListDrugs(c *gin.Context) {
	if s.deps.Drugs == nil {
		s.serviceUnavailable(c, "drug registry")
		return
	}
	limit, err := queryInt(c, "limit", 100)
	if err != nil || limit <= 0 {
		s.badRequest(c, "Invalid limit", err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		s.badRequest(c, "Invalid offset", err)
		return
	}

	ctx := c.Request.Context()
	list, err := s.deps.Drugs.List(ctx, limit, offset)
	if err != nil {
		s.writeError(c, err)
		return
	}
	total, err := s.deps.Drugs.Count(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if list == nil {
		list = []*domain.Drug{}
	}
	c.JSON(http.StatusOK, gin.H{
		"drugs":  list,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// handleSaveDrug upserts a drug; a missing uuid is generated.
func (s *Server) handleSaveDrug(c *gin.Context) {
	if s.deps.Drugs == nil {
		s.serviceUnavailable(c, "drug registry")
		return
	}
	var drug domain.Drug
	if err := c.ShouldBindJSON(&drug); err != nil {
		s.badRequest(c, "Invalid drug", err)
		return
	}
	if drug.UUID == "" {
		drug.UUID = uuid.NewString()
	}

	if err := s.deps.Drugs.Save(c.Request.Context(), &drug); err != nil {
		s.writeError(c, err)
		return
	}
	s.invalidateDrugCache()
	c.JSON(http.StatusOK, drug)
}

// handleGetDrug returns one drug by uuid.
func (s *Server) handleGetDrug(c *gin.Context) {
	if s.deps.Drugs == nil {
		s.serviceUnavailable(c, "drug registry")
		return
	}
	drug, err := s.deps.Drugs.Get(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, drug)
}

// handleDeleteDrug removes one drug by uuid.
func (s *Server) handleDeleteDrug(c *gin.Context) {
	if s.deps.Drugs == nil {
		s.serviceUnavailable(c, "drug registry")
		return
	}
	if err := s.deps.Drugs.Delete(c.Request.Context(), c.Param("uuid")); err != nil {
		s.writeError(c, err)
		return
	}
	s.invalidateDrugCache()
	c.Status(http.StatusNoContent)
}

func (s *Server) invalidateDrugCache() {
	if s.deps.DrugCache != nil {
		s.deps.DrugCache.Invalidate()
	}
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
