package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"time"

	"github.com/chambridge/pure-monitor/internal/db"
	"github.com/gin-gonic/gin"
)

// CapacityReader is the read side of the capacity history.
type CapacityReader interface {
	QueryCapacitySamples(ctx context.Context, q db.CapacityQuery) ([]db.CapacitySample, int, error)
}

type CapacityQueryParams struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Frame     string `form:"frame"`
	Limit     int    `form:"limit,default=100"`
	Offset    int    `form:"offset,default=0"`
}

// QueryCapacityHandler handles the /api/capacity/v1/samples endpoint, querying pure_capacity
func QueryCapacityHandler(store CapacityReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params CapacityQueryParams
		if err := c.ShouldBindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
			return
		}

		// Validate limit
		if params.Limit <= 0 || params.Limit > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be between 1 and 1000"})
			return
		}
		if params.Offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Offset must be non-negative"})
			return
		}

		// Default window: start of the current month through the end of today.
		// Dates are local, matching the stored datetime column.
		now := time.Now()
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

		if params.StartDate != "" {
			var err error
			start, err = time.ParseInLocation("2006-01-02", params.StartDate, time.Local)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date: " + err.Error()})
				return
			}
		}

		if params.EndDate != "" {
			var err error
			end, err = time.ParseInLocation("2006-01-02", params.EndDate, time.Local)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date: " + err.Error()})
				return
			}
		}

		if end.Before(start) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not be before start_date"})
			return
		}

		// end_date is inclusive
		samples, total, err := store.QueryCapacitySamples(c.Request.Context(), db.CapacityQuery{
			Frame:  params.Frame,
			Start:  start,
			End:    end.AddDate(0, 0, 1),
			Limit:  params.Limit,
			Offset: params.Offset,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query capacity samples: " + err.Error()})
			return
		}
		if samples == nil {
			samples = []db.CapacitySample{}
		}

		// Check Accept header
		if c.GetHeader("Accept") == "text/csv" {
			var buf bytes.Buffer
			writer := csv.NewWriter(&buf)

			if err := writer.Write(db.CSVHeader); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write CSV header: " + err.Error()})
				return
			}
			for _, sample := range samples {
				if err := writer.Write(sample.Record()); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write CSV row: " + err.Error()})
					return
				}
			}

			writer.Flush()
			if err := writer.Error(); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to flush CSV: " + err.Error()})
				return
			}

			c.Header("Content-Type", "text/csv")
			c.Header("Content-Disposition", "attachment;filename=pure_capacity.csv")
			c.String(http.StatusOK, buf.String())
			return
		}

		// JSON response with metadata
		c.JSON(http.StatusOK, gin.H{
			"metadata": gin.H{
				"total":  total,
				"limit":  params.Limit,
				"offset": params.Offset,
			},
			"data": samples,
		})
	}
}
