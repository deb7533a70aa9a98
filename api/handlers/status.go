package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// StatusPageHandler serves the last generated status page.
func StatusPageHandler(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Status page has not been generated yet"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read status page: " + err.Error()})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	}
}

func HealthzHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
