package flasharray

import (
	"context"
	"fmt"
	"time"

	"github.com/chambridge/pure-monitor/internal/frames"
	"go.uber.org/zap"
)

const authTokenHeader = "x-auth-token"

// RESTConfig configures FlashArray REST 2.x sessions.
type RESTConfig struct {
	APIVersion string
	Timeout    time.Duration
	VerifySSL  bool
	// Address maps a full frame name to the array base URL. Defaults to https://<name>.
	Address func(fullName string) string
}

// RESTConnector opens REST sessions authenticated with the frame's API token.
type RESTConnector struct {
	config RESTConfig
	log    *zap.Logger
}

func NewRESTConnector(cfg RESTConfig, log *zap.Logger) *RESTConnector {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2.4"
	}
	if cfg.Address == nil {
		cfg.Address = func(fullName string) string { return "https://" + fullName }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RESTConnector{config: cfg, log: log.Named("flasharray")}
}

type hardwareItem struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Slot   *int   `json:"slot"`
}

type driveItem struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Capacity int64  `json:"capacity"`
}

type spaceItem struct {
	Capacity int64 `json:"capacity"`
	Space    struct {
		DataReduction  float64 `json:"data_reduction"`
		TotalReduction float64 `json:"total_reduction"`
		TotalPhysical  int64   `json:"total_physical"`
	} `json:"space"`
}

// Session is an authenticated REST session to one array.
type Session struct {
	frame   string
	client  *httpClient
	prefix  string
	log     *zap.Logger
	hasAuth bool
}

// Connect logs in with the API token and returns a session carrying the
// x-auth-token for subsequent calls.
func (c *RESTConnector) Connect(ctx context.Context, creds frames.Credentials) (Array, error) {
	client := newHTTPClient(httpClientConfig{
		BaseURL:   c.config.Address(creds.FullName),
		Timeout:   c.config.Timeout,
		VerifySSL: c.config.VerifySSL,
	})

	s := &Session{
		frame:  creds.Frame,
		client: client,
		prefix: "/api/" + c.config.APIVersion,
		log:    c.log.With(zap.String("frame", creds.Frame), zap.String("array", creds.FullName)),
	}

	header, err := client.Post(ctx, s.prefix+"/login", map[string]string{"api-token": creds.Token}, nil, nil)
	if err != nil {
		client.CloseIdleConnections()
		return nil, fmt.Errorf("issue with connecting to frame %s: %w", creds.Frame, err)
	}
	token := header.Get(authTokenHeader)
	if token == "" {
		client.CloseIdleConnections()
		return nil, fmt.Errorf("issue with connecting to frame %s: login returned no session token", creds.Frame)
	}
	client.SetHeader(authTokenHeader, token)
	s.hasAuth = true
	s.log.Debug("authenticated")

	return s, nil
}

func (c *RESTConnector) ConnectHealth(ctx context.Context, creds frames.Credentials) (HealthSession, error) {
	return c.Connect(ctx, creds)
}

// SpaceSummary returns the first record of the array space endpoint.
func (s *Session) SpaceSummary(ctx context.Context) (*Space, error) {
	var resp struct {
		Items []spaceItem `json:"items"`
	}
	if err := s.client.Get(ctx, s.prefix+"/arrays/space", &resp); err != nil {
		return nil, fmt.Errorf("failed to get space info: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("no space info returned for %s", s.frame)
	}

	item := resp.Items[0]
	return &Space{
		CapacityBytes:  item.Capacity,
		TotalBytes:     item.Space.TotalPhysical,
		DataReduction:  item.Space.DataReduction,
		TotalReduction: item.Space.TotalReduction,
	}, nil
}

func (s *Session) ListHardware(ctx context.Context) ([]Component, error) {
	var resp struct {
		Items []hardwareItem `json:"items"`
	}
	if err := s.client.Get(ctx, s.prefix+"/hardware", &resp); err != nil {
		return nil, fmt.Errorf("failed to get hardware: %w", err)
	}

	components := make([]Component, 0, len(resp.Items))
	for _, hw := range resp.Items {
		slot := "-"
		if hw.Slot != nil {
			slot = fmt.Sprintf("%d", *hw.Slot)
		}
		components = append(components, Component{
			Name:   hw.Name,
			Type:   hw.Type,
			Status: hw.Status,
			Line:   fmt.Sprintf(hardwareRowFormat, hw.Name, hw.Status, hw.Type, slot),
		})
	}
	return components, nil
}

func (s *Session) ListDrives(ctx context.Context) ([]Component, error) {
	var resp struct {
		Items []driveItem `json:"items"`
	}
	if err := s.client.Get(ctx, s.prefix+"/drives", &resp); err != nil {
		return nil, fmt.Errorf("failed to get drives: %w", err)
	}

	components := make([]Component, 0, len(resp.Items))
	for _, d := range resp.Items {
		components = append(components, Component{
			Name:   d.Name,
			Type:   d.Type,
			Status: d.Status,
			Line:   fmt.Sprintf(driveRowFormat, d.Name, d.Type, d.Status, d.Capacity),
		})
	}
	return components, nil
}

const (
	hardwareRowFormat = "%-16s %-14s %-16s %s"
	driveRowFormat    = "%-16s %-10s %-12s %d"
)

func (s *Session) HardwareHeader() string {
	return fmt.Sprintf(hardwareRowFormat, "Name", "Status", "Type", "Slot")
}

func (s *Session) DriveHeader() string {
	return fmt.Sprintf("%-16s %-10s %-12s %s", "Name", "Type", "Status", "Capacity")
}

// Close ends the session. A failed logout is only logged; the session token
// expires on the array side anyway.
func (s *Session) Close(ctx context.Context) error {
	defer s.client.CloseIdleConnections()
	if !s.hasAuth {
		return nil
	}
	s.hasAuth = false
	if _, err := s.client.Post(ctx, s.prefix+"/logout", nil, nil, nil); err != nil {
		s.log.Debug("logout failed", zap.Error(err))
	}
	return nil
}
