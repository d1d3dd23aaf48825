package netcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"rollcall/pkg/platform/sentinel"
)

// Reputation is what the external reputation API reports for an address.
type Reputation struct {
	Bogon   bool `json:"bogon"`
	Privacy struct {
		VPN     bool `json:"vpn"`
		Proxy   bool `json:"proxy"`
		Hosting bool `json:"hosting"`
	} `json:"privacy"`
}

// Suspicious reports whether any reputation signal marks the address.
func (r Reputation) Suspicious() bool {
	return r.Bogon || r.Privacy.VPN || r.Privacy.Proxy || r.Privacy.Hosting
}

// ReputationClient looks up an IP against an external reputation service.
type ReputationClient interface {
	Lookup(ctx context.Context, ip string) (Reputation, error)
}

// HTTPReputationClient queries an ipinfo-style API: GET {base}/{ip}/json.
type HTTPReputationClient struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewHTTPReputationClient constructs a client with a bounded timeout so a
// slow reputation service can only ever delay a submission, not hang it.
func NewHTTPReputationClient(baseURL, token string, timeout time.Duration) *HTTPReputationClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPReputationClient{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Lookup fetches the reputation for ip. Failures return
// sentinel.ErrUnavailable; the classifier degrades them to Unknown.
func (c *HTTPReputationClient) Lookup(ctx context.Context, ip string) (Reputation, error) {
	u := fmt.Sprintf("%s/%s/json", c.baseURL, url.PathEscape(ip))
	if c.token != "" {
		u += "?token=" + url.QueryEscape(c.token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Reputation{}, fmt.Errorf("build reputation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Reputation{}, fmt.Errorf("reputation lookup: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Reputation{}, fmt.Errorf("reputation lookup status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var rep Reputation
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		return Reputation{}, fmt.Errorf("decode reputation response: %w: %w", sentinel.ErrUnavailable, err)
	}
	return rep, nil
}
