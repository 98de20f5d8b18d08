package ckan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vetbcn/clinic-directory/internal/domain"
	"github.com/vetbcn/clinic-directory/internal/observability"
)

// Options configures a datastore client.
type Options struct {
	BaseURL    string
	ResourceID string
	Query      string
	PageSize   int
	Timeout    time.Duration
}

// Client reads establishment rows from a CKAN datastore resource.
// It implements pipeline.Fetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	resourceID string
	query      string
	pageSize   int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a CKAN datastore client.
func NewClient(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		resourceID: opts.ResourceID,
		query:      opts.Query,
		pageSize:   opts.PageSize,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchAll pages through the full-text search results one page at a time.
// It stops once the accumulated rows reach the reported total or a page comes
// back short. Any failed page aborts the whole fetch.
func (c *Client) FetchAll(ctx context.Context) ([]domain.SourceRecord, error) {
	var records []domain.SourceRecord
	offset := 0

	for {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		for _, r := range page.Records {
			records = append(records, r.toSource())
		}
		c.metrics.SourcePagesFetched.Inc()
		c.metrics.SourceRowsFetched.Add(float64(len(page.Records)))
		c.logger.Debug("fetched datastore page",
			"offset", offset, "rows", len(page.Records), "total", page.Total)

		if len(records) >= page.Total || len(page.Records) < c.pageSize {
			break
		}
		offset += c.pageSize
	}

	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, offset int) (result, error) {
	params := url.Values{
		"resource_id": {c.resourceID},
		"q":           {c.query},
		"limit":       {strconv.Itoa(c.pageSize)},
		"offset":      {strconv.Itoa(offset)},
	}
	u := c.baseURL + "/datastore_search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return result{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result{}, fmt.Errorf("datastore request at offset %d: %w", offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		return result{}, fmt.Errorf("ckan API error: status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return result{}, fmt.Errorf("decode response: %w", err)
	}
	if !body.Success {
		return result{}, errors.New("ckan API error: request not successful")
	}
	return body.Result, nil
}

// CKAN datastore response types.

type response struct {
	Success bool   `json:"success"`
	Result  result `json:"result"`
}

type result struct {
	Records []record `json:"records"`
	Total   int      `json:"total"`
}

type record struct {
	RegisterID     flexString `json:"register_id"`
	Name           flexString `json:"name"`
	RoadType       flexString `json:"addresses_roadtype_name"`
	RoadName       flexString `json:"addresses_road_name"`
	StreetNumber   flexString `json:"addresses_start_street_number"`
	Neighborhood   flexString `json:"addresses_neighborhood_name"`
	District       flexString `json:"addresses_district_name"`
	ZipCode        flexString `json:"addresses_zip_code"`
	Lat            flexString `json:"geo_epgs_4326_lat"`
	Lon            flexString `json:"geo_epgs_4326_lon"`
	AttributeName  flexString `json:"values_attribute_name"`
	AttributeValue flexString `json:"values_value"`
	EndDate        flexString `json:"end_date"`
}

func (r record) toSource() domain.SourceRecord {
	return domain.SourceRecord{
		RegisterID:     string(r.RegisterID),
		Name:           string(r.Name),
		RoadType:       string(r.RoadType),
		RoadName:       string(r.RoadName),
		StreetNumber:   string(r.StreetNumber),
		Neighborhood:   string(r.Neighborhood),
		District:       string(r.District),
		ZipCode:        string(r.ZipCode),
		Lat:            string(r.Lat),
		Lon:            string(r.Lon),
		AttributeName:  string(r.AttributeName),
		AttributeValue: string(r.AttributeValue),
		EndDate:        string(r.EndDate),
	}
}

// flexString accepts a JSON string, number, boolean or null. Null decodes to
// the empty string; numbers keep their literal text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	switch {
	case string(b) == "null":
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(b)
	}
	return nil
}
