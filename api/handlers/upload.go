package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strings"

	"github.com/chambridge/pure-monitor/internal/processor"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadHandler backfills the capacity history from an uploaded CSV export or a
// tar.gz bundle of them.
func UploadHandler(store processor.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File upload failed"})
			return
		}
		defer file.Close()

		name := strings.ToLower(header.Filename)
		var result processor.Result
		switch {
		case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
			result, err = processor.ProcessTarReader(c.Request.Context(), file, store, log)
		case strings.HasSuffix(name, ".csv"):
			result, err = processor.ProcessCSV(c.Request.Context(), store, csv.NewReader(file), log)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type, expected .csv or .tar.gz"})
			return
		}
		if errors.Is(err, processor.ErrInsertFailed) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": result})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to process upload: " + err.Error(), "result": result})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "File processed successfully", "result": result})
	}
}
