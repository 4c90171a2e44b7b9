package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContentTypeNDJSON is the media type of generation responses
const ContentTypeNDJSON = "application/x-ndjson"

// responseStream adapts the gin writer to the gateway's Stream
type responseStream struct {
	c *gin.Context
}

func newResponseStream(c *gin.Context) *responseStream {
	return &responseStream{c: c}
}

// Begin commits the streaming headers and the 200 status
func (s *responseStream) Begin() {
	header := s.c.Writer.Header()
	header.Set("Content-Type", ContentTypeNDJSON)
	header.Set("Cache-Control", "no-cache")
	header.Set("X-Accel-Buffering", "no")
	s.c.Status(http.StatusOK)
	s.c.Writer.WriteHeaderNow()
}

func (s *responseStream) Write(p []byte) (int, error) {
	return s.c.Writer.Write(p)
}

func (s *responseStream) Flush() {
	s.c.Writer.Flush()
}
