package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/retailops/core/internal/domain/shared"
	"github.com/retailops/core/internal/domain/staff"
	"github.com/retailops/core/internal/infrastructure/remote"
	"github.com/retailops/core/internal/interfaces/http/dto"
	"github.com/retailops/core/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getSession extracts the staff session placed in the context by the
// authentication middleware
func getSession(c *gin.Context) (staff.Session, bool) {
	return middleware.GetSession(c)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, message))
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, message))
}

// HandleError converts domain and remote errors to HTTP responses. Domain
// errors map through their code; remote errors surface as 502 so clients can
// tell a backend outage from a local rejection.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := dto.GetHTTPStatus(domainErr.Code)
		c.JSON(status, dto.NewErrorResponse(domainErr.Code, domainErr.Message))
		return
	}

	var remoteErr *remote.RemoteError
	if errors.As(err, &remoteErr) {
		c.JSON(http.StatusBadGateway, dto.NewErrorResponse(dto.ErrCodeUpstream, remoteErr.Error()))
		return
	}

	c.JSON(http.StatusInternalServerError,
		dto.NewErrorResponse(dto.ErrCodeInternal, "An unexpected error occurred"))
}
