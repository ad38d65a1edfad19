package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/denisok6893-rgb/lokao-advisor/internal/money"
)

// Fetcher looks up an asking price per square meter. Zero means no data.
type Fetcher interface {
	Fetch(ctx context.Context, neighborhood, propertyType string) (float64, error)
}

// HTTPFetcher queries a JSON price endpoint: GET endpoint?bairro=..&tipo=.. -> {"valor": ...}.
type HTTPFetcher struct {
	endpoint string
	client   *http.Client
}

func NewHTTPFetcher(endpoint string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{endpoint: endpoint, client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, neighborhood, propertyType string) (float64, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return 0, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("bairro", neighborhood)
	q.Set("tipo", propertyType)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("price lookup: status %d", resp.StatusCode)
	}
	var body struct {
		Value money.Amount `json:"valor"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode price: %w", err)
	}
	return body.Value.Float(), nil
}
