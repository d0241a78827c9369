package routes

import (
	"bytes"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const MAX_BATCH = 10_000

// maxBodyBytes bounds request bodies; a full MAX_BATCH of raw records fits
// well within it.
var maxBodyBytes int64 = 8 << 20

type ObservationStore interface {
	Store(raws []models.RawObservation) (models.ImportSummary, []models.Rejection, error)
}

type observationsRequest struct {
	Observations []models.RawObservation `json:"observations"`
}

// Observations accepts either a bare JSON array of raw records or an object
// wrapping them under "observations".
func Observations(store ObservationStore, snapshots *Snapshots) func(c *gin.Context) {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}

		var raws []models.RawObservation
		if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &raws)
		} else {
			var req observationsRequest
			err = json.Unmarshal(trimmed, &req)
			raws = req.Observations
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
			return
		}
		if len(raws) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no observations supplied"})
			return
		}
		if len(raws) > MAX_BATCH {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too many observations in one batch"})
			return
		}

		summary, rejected, err := store.Store(raws)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if summary.Stored > 0 {
			snapshots.Invalidate()
		}

		status := http.StatusCreated
		if summary.Accepted == 0 {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, models.ObservationsResponse{
			Summary:  summary,
			Rejected: rejected,
		})
	}
}
