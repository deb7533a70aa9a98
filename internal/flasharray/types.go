// Package flasharray adapts a Pure Storage FlashArray to the three capabilities the
// monitoring jobs need: the space summary, the hardware inventory and the drive
// inventory. A REST session serves all three; an SSH session can serve the two
// inventories.
package flasharray

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chambridge/pure-monitor/internal/frames"
)

// Space is the array-wide space summary as reported by the array, in bytes.
type Space struct {
	CapacityBytes  int64
	TotalBytes     int64
	DataReduction  float64
	TotalReduction float64
}

// Component is one hardware or drive inventory entry.
type Component struct {
	Name   string
	Type   string
	Status string
	// Line is the row shown in the status page detail tables.
	Line string
}

// HealthSource lists hardware and drive inventories.
type HealthSource interface {
	ListHardware(ctx context.Context) ([]Component, error)
	ListDrives(ctx context.Context) ([]Component, error)
}

// HeaderSource is implemented by sources whose detail rows come with a column header.
type HeaderSource interface {
	HardwareHeader() string
	DriveHeader() string
}

// HealthSession is an open HealthSource that must be closed.
type HealthSession interface {
	HealthSource
	Close(ctx context.Context) error
}

// Array is an authenticated session to one frame.
type Array interface {
	HealthSession
	SpaceSummary(ctx context.Context) (*Space, error)
}

// Connector opens array sessions.
type Connector interface {
	Connect(ctx context.Context, creds frames.Credentials) (Array, error)
}

// HealthConnector opens sessions that can only list inventories.
type HealthConnector interface {
	ConnectHealth(ctx context.Context, creds frames.Credentials) (HealthSession, error)
}

// APIError represents an API error response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// IsUnauthorized returns true if the error is a 401 Unauthorized
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}
