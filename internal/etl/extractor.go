package etl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
)

// ErrorKind classifies extraction failures.
type ErrorKind string

const (
	KindConfig    ErrorKind = "config"
	KindTransport ErrorKind = "transport"
	KindFormat    ErrorKind = "format"
)

// ErrMissingAPIKey is wrapped by the config error raised when no credential is set.
var ErrMissingAPIKey = errors.New("AVIATIONSTACK_API_KEY environment variable not set")

// ExtractError is returned by APIExtractor for every failure.
type ExtractError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// maxErrorBody bounds how much of a failed response is echoed into the error.
const maxErrorBody = 512

// APIExtractor pulls flight records from the AviationStack flights endpoint.
type APIExtractor struct {
	BaseURL      string
	AccessKey    string
	FlightStatus string
	Limit        int
	Client       *http.Client
	Mapping      *models.MappingSchema
	Log          logger.Logger
}

type flightsResponse struct {
	Data json.RawMessage `json:"data"`
}

// Extract fetches one page of flights and flattens it into a batch whose
// columns are exactly the mapping's source fields.
func (e *APIExtractor) Extract(ctx context.Context) (*models.Batch, error) {
	if e.AccessKey == "" {
		return nil, &ExtractError{Kind: KindConfig, Op: "credential", Err: ErrMissingAPIKey}
	}

	endpoint, err := url.Parse(e.BaseURL)
	if err != nil {
		return nil, &ExtractError{Kind: KindConfig, Op: "base url", Err: err}
	}
	q := endpoint.Query()
	q.Set("access_key", e.AccessKey)
	q.Set("flight_status", e.FlightStatus)
	q.Set("limit", strconv.Itoa(e.Limit))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, &ExtractError{Kind: KindTransport, Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	e.Log.Info("Requesting flights", "url", e.BaseURL, "flight_status", e.FlightStatus, "limit", e.Limit)

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &ExtractError{Kind: KindTransport, Op: "request", Err: redact(err, e.AccessKey)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExtractError{Kind: KindTransport, Op: "read body", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &ExtractError{
			Kind: KindTransport,
			Op:   "status",
			Err:  fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)),
		}
	}

	var envelope flightsResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ExtractError{Kind: KindFormat, Op: "decode", Err: err}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, &ExtractError{Kind: KindFormat, Op: "decode", Err: errors.New("response has no 'data' field")}
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.Data))
	dec.UseNumber()
	var items []interface{}
	if err := dec.Decode(&items); err != nil {
		return nil, &ExtractError{Kind: KindFormat, Op: "decode", Err: fmt.Errorf("'data' is not an array: %w", err)}
	}

	flat := make([]map[string]interface{}, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, &ExtractError{Kind: KindFormat, Op: "decode", Err: fmt.Errorf("data[%d] is %T, not an object", i, item)}
		}
		row := make(map[string]interface{})
		flatten("", obj, row)
		flat = append(flat, row)
	}

	batch := project(flat, e.Mapping.SourceColumns())
	e.Log.Info("Extracted flights", "rows", batch.Len(), "columns", len(batch.Columns))
	return batch, nil
}

// flatten writes nested objects into out using dot-separated keys. Arrays and
// scalars are stored as they are.
func flatten(prefix string, obj map[string]interface{}, out map[string]interface{}) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok && len(nested) > 0 {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// project keeps only columns. A column no record carries is filled with ""
// everywhere; a column missing from a single record is nil in that row.
func project(rows []map[string]interface{}, columns []string) *models.Batch {
	seen := make(map[string]bool, len(columns))
	for _, row := range rows {
		for _, c := range columns {
			if _, ok := row[c]; ok {
				seen[c] = true
			}
		}
	}

	batch := models.NewBatch(columns)
	for _, row := range rows {
		rec := make(models.Record, len(columns))
		for _, c := range columns {
			if !seen[c] {
				rec[c] = ""
				continue
			}
			rec[c] = row[c]
		}
		batch.Append(rec)
	}
	return batch
}

// redact strips the access key from transport errors, which embed the URL.
func redact(err error, secret string) error {
	var uerr *url.Error
	if secret == "" || !errors.As(err, &uerr) {
		return err
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		return err
	}
	q := u.Query()
	if q.Has("access_key") {
		q.Set("access_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
}
