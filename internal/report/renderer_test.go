package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chambridge/pure-monitor/internal/health"
	"github.com/chambridge/pure-monitor/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generated = time.Date(2025, 5, 17, 9, 5, 0, 0, time.Local)

func samplePage() Page {
	return Page{
		Hostname:  "monitor01",
		Generated: generated,
		Statuses: []status.FrameStatus{
			{
				Frame:          "pureframe1",
				Connectivity:   health.Online,
				Status:         health.StatusOK,
				HardwareStatus: health.StatusOK,
				DriveStatus:    health.StatusOK,
			},
			{
				Frame:          "pureframe2",
				Connectivity:   health.Online,
				Status:         health.StatusIssue,
				HardwareStatus: health.StatusIssue,
				DriveStatus:    health.StatusIssue,
				FailedDrives:   1,
				HardwareDetail: []string{"CH0.FAN1  failed"},
				DriveDetail:    []string{"CH0.BAY3  SSD  faulted"},
			},
			{
				Frame:          "pureframe3",
				Connectivity:   health.Offline,
				Status:         health.StatusInaccessible,
				HardwareStatus: health.StatusInaccessible,
				DriveStatus:    health.StatusInaccessible,
			},
		},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, samplePage()))
	html := buf.String()

	assert.Contains(t, html, "#00FF09")
	assert.Contains(t, html, "#F7FF00")
	assert.Contains(t, html, `<td class="ok">OK</td>`)
	assert.Contains(t, html, `<td class="warn">Issue</td>`)
	assert.Contains(t, html, `<td class="warn">Inaccessible</td>`)
	assert.Contains(t, html, `<td class="warn">1</td>`)
	assert.Equal(t, 2, strings.Count(html, `<td class="ok">0</td>`))

	first := strings.Index(html, ">pureframe1<")
	second := strings.Index(html, ">pureframe2<")
	third := strings.Index(html, ">pureframe3<")
	assert.True(t, first < second && second < third, "columns follow frame order")

	assert.Equal(t, 1, strings.Count(html, `<table class="t1" >`), "only frames with issues get a detail table")
	assert.Contains(t, html, "<pre>CH0.FAN1  failed\n</pre>")
	assert.Contains(t, html, "<pre>CH0.BAY3  SSD  faulted\n</pre>")
	assert.Contains(t, html, "Report generated on monitor01 at 05/17/2025 09:05")
}

func TestRenderDriveIssueOnly(t *testing.T) {
	page := Page{
		Hostname:  "monitor01",
		Generated: generated,
		Statuses: []status.FrameStatus{{
			Frame:          "pureframe1",
			Status:         health.StatusIssue,
			HardwareStatus: health.StatusOK,
			FailedDrives:   2,
			DriveDetail:    []string{"header", "a", "b"},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, page))
	html := buf.String()
	assert.Equal(t, 1, strings.Count(html, "<pre>"))
	assert.Contains(t, html, "<pre>header\na\nb\n</pre>")
}

func TestRenderEscapes(t *testing.T) {
	page := Page{
		Hostname:  "<host>",
		Generated: generated,
		Statuses: []status.FrameStatus{{
			Frame:          "frame<script>",
			Status:         health.StatusIssue,
			HardwareStatus: health.StatusIssue,
			HardwareDetail: []string{"CH0 <bad> & worse"},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, page))
	html := buf.String()
	assert.NotContains(t, html, "frame<script>")
	assert.Contains(t, html, "frame&lt;script&gt;")
	assert.Contains(t, html, "CH0 &lt;bad&gt; &amp; worse")
	assert.Contains(t, html, "Report generated on &lt;host&gt;")
}

func TestRenderErrorFrame(t *testing.T) {
	page := Page{
		Generated: generated,
		Statuses: []status.FrameStatus{{
			Frame:  "pureframe1",
			Status: health.StatusError,
			Err:    "connection reset",
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, page))
	assert.Contains(t, buf.String(), "<pre>connection reset\n</pre>")
	assert.Contains(t, buf.String(), `<td class="warn">Error</td>`)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pure_status.html")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	require.NoError(t, WriteFile(path, samplePage()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<html>"))
	assert.NotContains(t, string(data), "stale")
}

func TestWriteFileMissingDir(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "status.html"), samplePage())
	assert.Error(t, err)
}
