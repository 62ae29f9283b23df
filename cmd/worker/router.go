package main

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
)

// consumer is the part of jobs.Queue the probes look at.
type consumer interface {
	Consuming() bool
}

type aliveResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Consuming  bool   `json:"consuming"`
	Goroutines int    `json:"routine_num"`
}

func probeRouter(q consumer) *gin.Engine {
	route := gin.New()
	route.Use(gin.Recovery())

	route.GET("/read-probe", func(c *gin.Context) {
		c.JSON(http.StatusOK, aliveResponse{Success: true, Message: "probe success"})
	})

	// check-live fails while the consumer is reconnecting to the broker.
	route.GET("/check-live", func(c *gin.Context) {
		res := aliveResponse{Success: true, Message: "main thread alive", Consuming: q.Consuming(), Goroutines: runtime.NumGoroutine()}
		if !res.Consuming {
			res.Success = false
			res.Message = "queue consumer not connected"
			c.JSON(http.StatusServiceUnavailable, res)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	return route
}
