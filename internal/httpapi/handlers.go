package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/linknav/internal/chain"
	"github.com/mesh-intelligence/linknav/internal/navigate"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

const tenantKey = "tenant_id"

// requireTenant parses the tenant header into the request context.
func requireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(TenantHeader))
		if err != nil || id == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errMissingTenant.Error()})
			return
		}
		c.Set(tenantKey, id)
		c.Next()
	}
}

func tenantOf(c *gin.Context) uuid.UUID {
	id, _ := c.Get(tenantKey)
	tenant, _ := id.(uuid.UUID)
	return tenant
}

func (s *Server) resolve(c *gin.Context) (*chain.Chain, error) {
	table := s.registry.Load()
	segments := chain.SplitPath(c.Param("path"))
	if s.resolver != nil {
		return s.resolver.Resolve(table, segments)
	}
	return chain.Resolve(table, segments)
}

func (s *Server) resolveEdge(c *gin.Context) (chain.Edge, error) {
	ch, err := s.resolve(c)
	if err != nil {
		return chain.Edge{}, err
	}
	e, ok := ch.FinalEdge()
	if !ok {
		return chain.Edge{}, errNotAnEdge
	}
	return e, nil
}

func (s *Server) listRoutes(c *gin.Context) {
	table := s.registry.Load()
	entityType, ok := table.EntityType(c.Param("entity"))
	if !ok {
		s.respondWithError(c, fmt.Errorf("%w: %q", errUnknownEntity, c.Param("entity")))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entity_type": entityType,
		"routes":      table.ListRoutesForEntity(entityType),
	})
}

// getPath serves list chains and bare entities as a list of links, and
// item chains as the single link between the last two entities.
func (s *Server) getPath(c *gin.Context) {
	ch, err := s.resolve(c)
	if err != nil {
		s.respondWithError(c, err)
		return
	}

	if e, ok := ch.FinalEdge(); ok {
		link, err := navigate.Find(c.Request.Context(), s.store, tenantOf(c), e)
		if err != nil {
			s.respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"chain": ch, "link": link})
		return
	}

	links, err := navigate.List(c.Request.Context(), s.store, tenantOf(c), ch)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chain": ch, "links": links})
}

func (s *Server) createLink(c *gin.Context) {
	e, err := s.resolveEdge(c)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	metadata, err := readMetadata(c)
	if err != nil {
		s.respondWithError(c, err)
		return
	}

	link, err := navigate.Create(c.Request.Context(), s.store, s.links.Load(), tenantOf(c), e, metadata)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (s *Server) updateLink(c *gin.Context) {
	link, ok := s.lookupEdge(c)
	if !ok {
		return
	}
	metadata, err := readMetadata(c)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	updated, err := s.store.Update(c.Request.Context(), tenantOf(c), link.ID, metadata)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteLink(c *gin.Context) {
	link, ok := s.lookupEdge(c)
	if !ok {
		return
	}
	if err := s.store.Delete(c.Request.Context(), tenantOf(c), link.ID); err != nil {
		s.respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteEntity(c *gin.Context) {
	entityType, ok := s.registry.Load().EntityType(c.Param("type"))
	if !ok {
		s.respondWithError(c, fmt.Errorf("%w: %q", errUnknownEntity, c.Param("type")))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondWithError(c, fmt.Errorf("%w: %q", types.ErrInvalidEntityID, c.Param("id")))
		return
	}
	if err := s.store.DeleteByEntity(c.Request.Context(), tenantOf(c), id, entityType); err != nil {
		s.respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// lookupEdge resolves the path to an item chain and loads its link. On
// failure it has already written the response.
func (s *Server) lookupEdge(c *gin.Context) (*types.Link, bool) {
	e, err := s.resolveEdge(c)
	if err != nil {
		s.respondWithError(c, err)
		return nil, false
	}
	link, err := navigate.Find(c.Request.Context(), s.store, tenantOf(c), e)
	if err != nil {
		s.respondWithError(c, err)
		return nil, false
	}
	return link, true
}

// readMetadata returns the request body as metadata; an empty body means
// none.
func readMetadata(c *gin.Context) (json.RawMessage, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, errInvalidMetadata
	}
	return types.CloneMetadata(body), nil
}
