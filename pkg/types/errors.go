package types

import (
	"errors"
	"fmt"
)

// Path resolution errors.
var (
	ErrInvalidPath     = errors.New("invalid path")
	ErrInvalidEntityID = errors.New("invalid entity ID")
	ErrRouteNotFound   = errors.New("route not found")
)

// Link service errors. Cross-tenant access is reported with the same errors
// as absence so that existence never leaks between tenants.
var (
	ErrLinkNotFound     = errors.New("link not found")
	ErrNotFoundOrDenied = errors.New("link not found or access denied")
	ErrLinkNotAllowed   = errors.New("link not allowed by validation rules")
)

// Configuration errors.
var (
	ErrInvalidDefinition   = errors.New("link definition is missing required fields")
	ErrInvalidEntityConfig = errors.New("entity config needs singular and plural")
	ErrDuplicateRoute      = errors.New("duplicate route")
	ErrEntityConflict      = errors.New("conflicting entity declaration")
)

// RouteNotFoundError reports that no route named Route is registered for
// EntityType. It matches ErrRouteNotFound with errors.Is.
type RouteNotFoundError struct {
	EntityType string
	Route      string
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("route not found: %s (entity type %q)", e.Route, e.EntityType)
}

// Is lets errors.Is(err, ErrRouteNotFound) match.
func (e *RouteNotFoundError) Is(target error) bool {
	return target == ErrRouteNotFound
}

// RouteName extracts the unresolved route name from err, if err is (or
// wraps) a RouteNotFoundError.
func RouteName(err error) (string, bool) {
	var rnf *RouteNotFoundError
	if errors.As(err, &rnf) {
		return rnf.Route, true
	}
	return "", false
}
