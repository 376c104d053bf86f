package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/station-telemetry-monitor/internal/telemetry"
)

// DefaultRTDataURL is the real-time station endpoint of the Marche region network.
const DefaultRTDataURL = "https://retemir.regione.marche.it/api/stations/rt-data"

// RTDataProvider implements telemetry.Source for the regional RT-data API.
type RTDataProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewRTDataProvider(client *http.Client, baseURL string) *RTDataProvider {
	if baseURL == "" {
		baseURL = DefaultRTDataURL
	}
	return &RTDataProvider{
		name:    "rt-data",
		baseURL: baseURL,
		client:  client,
		circuit: newCircuitBreaker("rt-data"),
	}
}

func (p *RTDataProvider) Name() string {
	return p.name
}

// Fetch downloads one snapshot. Network faults and non-2xx statuses are
// telemetry.ErrTransport; bodies that are not a JSON array of station
// objects are telemetry.ErrFormat.
func (p *RTDataProvider) Fetch(ctx context.Context) (telemetry.RawSnapshot, error) {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, p.baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", telemetry.ErrTransport, err)
	}

	return DecodeSnapshot(body)
}

// DecodeSnapshot parses an RT-data response body.
func DecodeSnapshot(body []byte) (telemetry.RawSnapshot, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: top-level value is not an array", telemetry.ErrFormat)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("%w: %w", telemetry.ErrFormat, err)
	}

	// Station fields decode leniently; only the array-of-objects shape is enforced.
	snap := make(telemetry.RawSnapshot, 0, len(elems))
	for i, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			return nil, fmt.Errorf("%w: element %d is not an object", telemetry.ErrFormat, i)
		}
		var st telemetry.RawStation
		if err := json.Unmarshal(elem, &st); err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", telemetry.ErrFormat, i, err)
		}
		snap = append(snap, st)
	}
	return snap, nil
}
