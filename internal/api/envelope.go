package api

import "github.com/gin-gonic/gin"

// Envelope is the wire format every response follows: success with data, or
// failure with an error message. Consumers must treat success:false as a
// typed failure, never parse it as data.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func respondErr(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Error: message})
}
