package adapters

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Stats tracks transport-level counters for the inspection API.
type Stats struct {
	activeConns atomic.Int64
	messages    atomic.Uint64
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) IncConn() { s.activeConns.Add(1) }

func (s *Stats) DecConn() { s.activeConns.Add(-1) }

func (s *Stats) IncMessage() { s.messages.Add(1) }

// Handler serves the counters as JSON.
func (s *Stats) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"active_connections": s.activeConns.Load(),
			"messages_total":     s.messages.Load(),
		})
	}
}
