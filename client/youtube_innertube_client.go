package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/researchaccelerator-hub/innertube-miner/document"
	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL        = "https://www.youtube.com"
	defaultClientName     = "WEB"
	defaultClientVersion  = "2.20250222.10.00"
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultAcceptLanguage = "ja,en;q=0.9"
	defaultTimeout        = 30 * time.Second

	// Watch pages are large, but anything past this is not a watch page.
	maxResponseBytes = 32 << 20
	// Kept from non-200 bodies for diagnostics.
	errorSnippetBytes = 4 << 10
)

var (
	// ErrInitialDataNotFound is returned when a watch page carries no
	// embedded initial data document.
	ErrInitialDataNotFound = errors.New("ytInitialData not found")

	// ErrNotConnected is returned by requests issued before Connect.
	ErrNotConnected = errors.New("client not connected - call Connect() first")

	initialDataPattern = regexp.MustCompile(`var ytInitialData\s*=\s*`)
)

// StatusError reports a non-200 response from YouTube.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// InnerTubeConfig contains configuration for the InnerTube client
type InnerTubeConfig struct {
	BaseURL        string        // Default: https://www.youtube.com
	ClientName     string        // Default: "WEB"
	ClientVersion  string        // Default: "2.20250222.10.00"
	UserAgent      string        // Default: desktop Chrome
	AcceptLanguage string        // Default: "ja,en;q=0.9"
	Timeout        time.Duration // Default: 30s
	HTTPClient     *http.Client  // Default: a client with Timeout
}

// InnerTubeClient fetches watch pages and InnerTube JSON documents over
// plain HTTP. Every response is returned as a document.Node; the client does
// no interpretation of its own.
type InnerTubeClient struct {
	mu         sync.RWMutex // Protects httpClient and connected state
	httpClient *http.Client
	connected  bool

	baseURL        string
	clientName     string
	clientVersion  string
	userAgent      string
	acceptLanguage string
	timeout        time.Duration
}

// NewInnerTubeClient creates a new InnerTube client. A nil config uses the
// defaults.
func NewInnerTubeClient(config *InnerTubeConfig) (*InnerTubeClient, error) {
	if config == nil {
		config = &InnerTubeConfig{}
	}

	c := &InnerTubeClient{
		httpClient:     config.HTTPClient,
		baseURL:        orDefault(config.BaseURL, defaultBaseURL),
		clientName:     orDefault(config.ClientName, defaultClientName),
		clientVersion:  orDefault(config.ClientVersion, defaultClientVersion),
		userAgent:      orDefault(config.UserAgent, defaultUserAgent),
		acceptLanguage: orDefault(config.AcceptLanguage, defaultAcceptLanguage),
		timeout:        config.Timeout,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}

	if _, err := url.Parse(c.baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	log.Info().
		Str("client_name", c.clientName).
		Str("client_version", c.clientVersion).
		Str("base_url", c.baseURL).
		Msg("Creating YouTube InnerTube client")

	return c, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Connect prepares the HTTP client.
func (c *InnerTubeClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		log.Warn().Msg("Client already connected")
		return nil
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	c.connected = true
	log.Info().Msg("Connected to YouTube InnerTube API")
	return nil
}

// Disconnect releases idle connections.
func (c *InnerTubeClient) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		log.Warn().Msg("Client already disconnected")
		return nil
	}

	log.Info().Msg("Disconnecting from YouTube InnerTube API")
	c.httpClient.CloseIdleConnections()
	c.connected = false
	return nil
}

func (c *InnerTubeClient) connectedClient() (*http.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected || c.httpClient == nil {
		return nil, ErrNotConnected
	}
	return c.httpClient, nil
}

// WatchPage fetches the watch page of videoID, optionally within listID, and
// returns the embedded initial data document.
func (c *InnerTubeClient) WatchPage(ctx context.Context, videoID, listID string) (document.Node, error) {
	if err := validateVideoID(videoID); err != nil {
		return nil, fmt.Errorf("invalid video ID: %w", err)
	}
	if listID != "" {
		if err := validatePlaylistID(listID); err != nil {
			return nil, fmt.Errorf("invalid playlist ID: %w", err)
		}
	}

	q := url.Values{}
	q.Set("v", videoID)
	if listID != "" {
		q.Set("list", listID)
	}
	target := c.baseURL + "/watch?" + q.Encode()

	log.Debug().
		Str("video_id", videoID).
		Str("list_id", listID).
		Msg("Fetching watch page")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	body, err := c.do(req, "watch")
	if err != nil {
		return nil, err
	}

	doc, err := ExtractInitialData(body)
	if err != nil {
		return nil, fmt.Errorf("watch page %s: %w", videoID, err)
	}
	return doc, nil
}

// ExtractInitialData locates the ytInitialData assignment in an HTML page
// and decodes the JSON value that follows it.
func ExtractInitialData(html []byte) (document.Node, error) {
	loc := initialDataPattern.FindIndex(html)
	if loc == nil {
		return nil, ErrInitialDataNotFound
	}
	doc, err := document.Decode(bytes.NewReader(html[loc[1]:]))
	if err != nil {
		return nil, fmt.Errorf("failed to decode initial data: %w", err)
	}
	return doc, nil
}

// Next fetches the watch-next continuation page behind token.
func (c *InnerTubeClient) Next(ctx context.Context, token string) (document.Node, error) {
	if token == "" {
		return nil, fmt.Errorf("continuation token cannot be empty")
	}
	return c.post(ctx, "next", map[string]any{"continuation": token})
}

// Browse fetches the browse page of browseID, for example "VL" + playlist ID.
func (c *InnerTubeClient) Browse(ctx context.Context, browseID string) (document.Node, error) {
	if browseID == "" {
		return nil, fmt.Errorf("browse ID cannot be empty")
	}
	return c.post(ctx, "browse", map[string]any{"browseId": browseID})
}

// BrowseContinuation fetches the browse continuation page behind token.
func (c *InnerTubeClient) BrowseContinuation(ctx context.Context, token string) (document.Node, error) {
	if token == "" {
		return nil, fmt.Errorf("continuation token cannot be empty")
	}
	return c.post(ctx, "browse", map[string]any{"continuation": token})
}

func (c *InnerTubeClient) post(ctx context.Context, endpoint string, fields map[string]any) (document.Node, error) {
	body := map[string]any{
		"context": map[string]any{
			"client": map[string]any{
				"hl":            "ja",
				"gl":            "JP",
				"clientName":    c.clientName,
				"clientVersion": c.clientVersion,
			},
		},
	}
	for k, v := range fields {
		body[k] = v
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", endpoint, err)
	}

	target := fmt.Sprintf("%s/youtubei/v1/%s?prettyPrint=false", c.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-YouTube-Client-Name", "1")
	req.Header.Set("X-YouTube-Client-Version", c.clientVersion)

	log.Debug().Str("endpoint", endpoint).Msg("Calling InnerTube endpoint")

	data, err := c.do(req, endpoint)
	if err != nil {
		return nil, err
	}

	doc, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return doc, nil
}

func (c *InnerTubeClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", c.acceptLanguage)
}

func (c *InnerTubeClient) do(req *http.Request, endpoint string) ([]byte, error) {
	httpClient, err := c.connectedClient()
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("endpoint", endpoint).Msg("InnerTube request failed")
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetBytes))
		log.Error().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("InnerTube request returned non-200 status")
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	return data, nil
}

var _ PageSource = (*InnerTubeClient)(nil)
