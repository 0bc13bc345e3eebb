package locality

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pricing-service/internal/models"
	"pricing-service/internal/util"

	"go.uber.org/zap"
)

// DetectOutcome tags the result of a detect-locality call
type DetectOutcome int

const (
	DetectOK DetectOutcome = iota
	DetectNotFound
	DetectError
)

// Coordinates as returned by the detect service
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DetectResult is the typed outcome of an IP or coordinate classification.
// Locality and Coordinates are only set for DetectOK; Reason carries the
// transport or upstream error otherwise.
type DetectResult struct {
	Outcome     DetectOutcome
	Locality    *models.Locality
	Coordinates *Coordinates
	Reason      string
}

// Detector classifies an IP or a coordinate pair into a locality
type Detector interface {
	DetectByIP(ctx context.Context, ip string) DetectResult
	DetectByCoordinates(ctx context.Context, lat, lon float64) DetectResult
}

// DetectClient calls the geolocation service's detect-locality endpoint
type DetectClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDetectClient creates a new detect client
func NewDetectClient(baseURL string, timeout time.Duration) *DetectClient {
	return &DetectClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.GetLogger(),
	}
}

// DetectByIP classifies an IP address into a locality
func (dc *DetectClient) DetectByIP(ctx context.Context, ip string) DetectResult {
	query := url.Values{}
	query.Set("ip", ip)
	return dc.detect(ctx, query)
}

// DetectByCoordinates maps a coordinate pair to the most likely locality
func (dc *DetectClient) DetectByCoordinates(ctx context.Context, lat, lon float64) DetectResult {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return dc.detect(ctx, query)
}

// detectEnvelope is the upstream {success, data | error} wire format
type detectEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    *struct {
		Locality    models.Locality `json:"locality"`
		Coordinates *Coordinates    `json:"coordinates,omitempty"`
	} `json:"data,omitempty"`
}

func (dc *DetectClient) detect(ctx context.Context, query url.Values) DetectResult {
	start := time.Now()
	defer func() {
		util.DetectRequestLatency.Observe(time.Since(start).Seconds())
	}()

	endpoint := fmt.Sprintf("%s/detect-locality?%s", dc.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return DetectResult{Outcome: DetectError, Reason: err.Error()}
	}

	resp, err := dc.httpClient.Do(req)
	if err != nil {
		dc.logger.Warn("Detect request failed", zap.Error(err))
		return DetectResult{Outcome: DetectError, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return DetectResult{Outcome: DetectNotFound, Reason: "no locality for input"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		dc.logger.Warn("Detect request returned non-2xx",
			zap.Int("status", resp.StatusCode))
		return DetectResult{Outcome: DetectError, Reason: fmt.Sprintf("upstream status %d", resp.StatusCode)}
	}

	var envelope detectEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return DetectResult{Outcome: DetectError, Reason: fmt.Sprintf("malformed envelope: %v", err)}
	}

	// A success:false body is a typed failure, never parsed as data.
	if !envelope.Success || envelope.Data == nil {
		reason := envelope.Error
		if reason == "" {
			reason = "detect service reported failure"
		}
		return DetectResult{Outcome: DetectNotFound, Reason: reason}
	}

	locality := envelope.Data.Locality
	return DetectResult{
		Outcome:     DetectOK,
		Locality:    &locality,
		Coordinates: envelope.Data.Coordinates,
	}
}
