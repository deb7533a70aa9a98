// Package health classifies frame hardware and drive inventories and probes frame
// reachability.
package health

import (
	"github.com/chambridge/pure-monitor/internal/flasharray"
)

type Status string

const (
	StatusOK           Status = "OK"
	StatusIssue        Status = "Issue"
	StatusInaccessible Status = "Inaccessible"
	StatusError        Status = "Error"
)

type Connectivity string

const (
	Online  Connectivity = "Online"
	Offline Connectivity = "Offline"
)

var (
	healthyHardware = map[string]bool{"ok": true, "not_installed": true}
	healthyDrives   = map[string]bool{"healthy": true, "unused": true}
)

// ClassifyHardware reports Issue when any component status is neither ok nor
// not_installed, together with the offending components in inventory order.
func ClassifyHardware(components []flasharray.Component) (Status, []flasharray.Component) {
	var offending []flasharray.Component
	for _, c := range components {
		if !healthyHardware[c.Status] {
			offending = append(offending, c)
		}
	}
	if len(offending) > 0 {
		return StatusIssue, offending
	}
	return StatusOK, nil
}

// ClassifyDrives counts drives that are neither healthy nor unused as failed.
func ClassifyDrives(drives []flasharray.Component) (Status, int, []flasharray.Component) {
	var failed []flasharray.Component
	for _, d := range drives {
		if !healthyDrives[d.Status] {
			failed = append(failed, d)
		}
	}
	if len(failed) > 0 {
		return StatusIssue, len(failed), failed
	}
	return StatusOK, 0, nil
}
