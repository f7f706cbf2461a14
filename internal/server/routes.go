// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/paper-library/internal/export"
	"github.com/pdiddy/paper-library/internal/kv"
	"github.com/pdiddy/paper-library/internal/library"
	"github.com/pdiddy/paper-library/internal/messaging"
)

func (s *Server) registerRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", s.health)
	api.POST("/messages", s.messages)
	api.GET("/papers", s.listPapers)
	api.DELETE("/papers/:id", s.deletePaper)
	api.GET("/clusters", s.clusters)
	api.GET("/export", s.export)
}

func (s *Server) health(c *gin.Context) {
	updated, err := s.store.LastUpdated(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	body := gin.H{"status": "ok"}
	if !updated.IsZero() {
		body["lastUpdated"] = updated
	}
	c.JSON(http.StatusOK, body)
}

// messages carries the message contract. Failures are reported in the
// Response body; the HTTP status is 200 for every decodable request.
func (s *Server) messages(c *gin.Context) {
	var req messaging.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messaging.Response{
			Error: fmt.Sprintf("invalid message: %v", err),
			Code:  messaging.CodeBadRequest,
		})
		return
	}
	c.JSON(http.StatusOK, s.handler.Handle(c.Request.Context(), req))
}

func (s *Server) listPapers(c *gin.Context) {
	papers, err := s.store.ListPapers(c.Request.Context(), library.Filter{
		Query:     c.Query("q"),
		ClusterID: c.Query("cluster"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, papers)
}

func (s *Server) deletePaper(c *gin.Context) {
	deleted, err := s.store.DeletePaper(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	status := http.StatusOK
	if !deleted {
		status = http.StatusNotFound
	}
	c.JSON(status, messaging.DeleteResult{Deleted: deleted})
}

func (s *Server) clusters(c *gin.Context) {
	clusters, err := s.store.Clusters(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, clusters)
}

func (s *Server) export(c *gin.Context) {
	res, err := s.handler.ExportLibrary(c.Request.Context(), c.Query("format"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, export.ErrUnknownFormat):
		status = http.StatusBadRequest
	case errors.Is(err, kv.ErrQuotaExceeded):
		status = http.StatusInsufficientStorage
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
