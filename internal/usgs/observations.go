// Package usgs retrieves observed discharge from the USGS NWIS
// instantaneous-values service for a gauged evaluation nexus, converted to
// cubic meters per second on the same hourly cadence the simulated series is
// aligned to.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ajkhattak/ngen-cal/internal/monitoring"
	"github.com/ajkhattak/ngen-cal/internal/troute"
)

// DefaultBaseURL is the production NWIS instantaneous-values endpoint.
const DefaultBaseURL = "https://waterservices.usgs.gov/nwis/iv/"

// discharge parameter code, reported in cubic feet per second
const dischargeParameter = "00060"

const cfsToCms = 0.028316846592

// Client fetches observed streamflow for a gauge site.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client against the production NWIS service.
func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type ivResponse struct {
	Value struct {
		TimeSeries []struct {
			Values []struct {
				Value []struct {
					Value    string `json:"value"`
					DateTime string `json:"dateTime"`
				} `json:"value"`
			} `json:"values"`
		} `json:"timeSeries"`
	} `json:"value"`
}

// Discharge returns the gauge's observed discharge over [start, end] in cubic
// meters per second, resampled to the hourly comparison cadence.
func (c *Client) Discharge(ctx context.Context, site string, start, end time.Time) (troute.Series, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("sites", site)
	q.Set("startDT", start.UTC().Format(time.RFC3339))
	q.Set("endDT", end.UTC().Format(time.RFC3339))
	q.Set("parameterCd", dischargeParameter)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return troute.Series{}, fmt.Errorf("failed to build NWIS request: %v", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return troute.Series{}, fmt.Errorf("failed to fetch observations for site %s: %v", site, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return troute.Series{}, fmt.Errorf("NWIS returned %s for site %s", resp.Status, site)
	}

	var body ivResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return troute.Series{}, fmt.Errorf("failed to parse NWIS response for site %s: %v", site, err)
	}

	var s troute.Series
	for _, ts := range body.Value.TimeSeries {
		for _, block := range ts.Values {
			for _, v := range block.Value {
				t, err := time.Parse(time.RFC3339, v.DateTime)
				if err != nil {
					// NWIS emits fractional-second offsets for some sites
					t, err = time.Parse("2006-01-02T15:04:05.000-07:00", v.DateTime)
				}
				if err != nil {
					return troute.Series{}, fmt.Errorf("failed to parse observation time %q: %v", v.DateTime, err)
				}
				cfs, err := strconv.ParseFloat(v.Value, 64)
				if err != nil {
					return troute.Series{}, fmt.Errorf("failed to parse observation value %q: %v", v.Value, err)
				}
				s.Times = append(s.Times, t.UTC())
				s.Values = append(s.Values, cfs*cfsToCms)
			}
		}
	}
	if s.Empty() {
		return troute.Series{}, fmt.Errorf("no observations for site %s in %s..%s", site, start, end)
	}
	monitoring.Logf("fetched %d observations for gauge %s", s.Len(), site)
	return s.ResampleHourlyFirst(), nil
}
