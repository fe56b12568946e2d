package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lyfeline/internal/apperr"
)

// respondError writes {"error": msg} with the status for err's kind.
// Upstream and unclassified failures show fallback instead of internals.
func (s *Server) respondError(c *gin.Context, err error, fallback string) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	msg := err.Error()
	switch kind {
	case apperr.KindUpstreamFailure, apperr.KindUnknown:
		msg = fallback
	}

	if status >= 500 {
		s.log.Error(fallback, "kind", string(kind), "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
