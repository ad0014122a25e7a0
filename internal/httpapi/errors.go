package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

var (
	errMissingTenant   = errors.New("missing or invalid " + TenantHeader + " header")
	errInvalidMetadata = errors.New("request body is not valid JSON")
	errNotAnEdge       = errors.New("path must name two entities joined by a route")
	errUnknownEntity   = errors.New("unknown entity type")
)

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidPath),
		errors.Is(err, types.ErrInvalidEntityID),
		errors.Is(err, errMissingTenant),
		errors.Is(err, errInvalidMetadata),
		errors.Is(err, errNotAnEdge):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrRouteNotFound),
		errors.Is(err, types.ErrLinkNotFound),
		errors.Is(err, types.ErrNotFoundOrDenied),
		errors.Is(err, errUnknownEntity):
		return http.StatusNotFound
	case errors.Is(err, types.ErrLinkNotAllowed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes the error body. Server errors are logged and their
// detail withheld from the client.
func (s *Server) respondWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	if route, ok := types.RouteName(err); ok {
		body["route"] = route
	}
	c.AbortWithStatusJSON(status, body)
}
