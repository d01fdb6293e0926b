package airport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// DefaultHTTPTimeout bounds a single identification request.
const DefaultHTTPTimeout = 10 * time.Second

// IdentifyRequest is the body of an airport identification request.
type IdentifyRequest struct {
	Location string `json:"location"`
}

// IdentifyResponse is the success body of an airport identification request.
type IdentifyResponse struct {
	Message     string             `json:"message"`
	AirportInfo models.AirportInfo `json:"airportInfo"`
}

// HTTPLookup calls a remote identify-airport endpoint.
type HTTPLookup struct {
	endpoint string
	client   *http.Client
}

// NewHTTPLookup returns a Lookup posting to endpoint. A nil client gets a default timeout.
func NewHTTPLookup(endpoint string, client *http.Client) *HTTPLookup {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTPLookup{endpoint: endpoint, client: client}
}

// IdentifyAirport posts the location and decodes the airport record.
// Any non-200 status is an error.
func (h *HTTPLookup) IdentifyAirport(ctx context.Context, location string) (models.AirportRecord, error) {
	body, err := json.Marshal(IdentifyRequest{Location: location})
	if err != nil {
		return models.AirportRecord{}, fmt.Errorf("failed to encode identify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.AirportRecord{}, fmt.Errorf("failed to build identify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return models.AirportRecord{}, fmt.Errorf("identify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("HTTPLookup.IdentifyAirport non-success status", "status", resp.StatusCode)
		return models.AirportRecord{}, fmt.Errorf("identify endpoint returned status %d", resp.StatusCode)
	}

	var out IdentifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.AirportRecord{}, fmt.Errorf("failed to decode identify response: %w", err)
	}
	return out.AirportInfo.Record(), nil
}
