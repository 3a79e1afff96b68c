package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/maauso/jobfeed-api/internal/source"
)

// Compile-time check that JSONAdapter implements Adapter.
var _ Adapter = (*JSONAdapter)(nil)

var utf8BOM = []byte("\xef\xbb\xbf")

// Key names tried in order for each logical field; the first non-empty
// value wins.
var (
	titleKeys       = []string{"title"}
	linkKeys        = []string{"applyUrl", "apply_url", "url", "link"}
	dateKeys        = []string{"date", "publishedAt", "published_at", "created"}
	companyKeys     = []string{"company"}
	locationKeys    = []string{"location"}
	descriptionKeys = []string{"description"}
	envelopeKeys    = []string{"jobs", "results", "items"}
	nestedNameKeys  = []string{"name", "display_name"}
)

// JSONAdapter fetches portals that expose a JSON array of job objects.
// A top-level object wrapping the array under "jobs", "results" or
// "items" is accepted as well.
type JSONAdapter struct {
	client *Client
}

// NewJSONAdapter creates a JSONAdapter.
func NewJSONAdapter(client *Client) *JSONAdapter {
	if client == nil {
		client = NewClient()
	}
	return &JSONAdapter{client: client}
}

// Fetch implements Adapter.
func (a *JSONAdapter) Fetch(ctx context.Context, src source.JobSource) ([]RawRecord, error) {
	body, err := a.client.get(ctx, src.URL, "application/json")
	if err != nil {
		return nil, err
	}
	return ParseJSON(body)
}

// ParseJSON extracts raw records from a JSON payload.
func ParseJSON(body []byte) ([]RawRecord, error) {
	body = bytes.TrimPrefix(body, utf8BOM)

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrParse)
	}

	items, err := recordArray(payload)
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrParse, i)
		}
		records = append(records, RawRecord{
			Title:       firstString(obj, titleKeys),
			Link:        firstString(obj, linkKeys),
			Published:   firstString(obj, dateKeys),
			Description: firstString(obj, descriptionKeys),
			Company:     firstString(obj, companyKeys),
			Location:    firstString(obj, locationKeys),
		})
	}
	return records, nil
}

func recordArray(payload any) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range envelopeKeys {
			if arr, ok := v[key].([]any); ok {
				return arr, nil
			}
		}
		return nil, fmt.Errorf("%w: object has no job array", ErrParse)
	default:
		return nil, fmt.Errorf("%w: expected an array of objects", ErrParse)
	}
}

func firstString(obj map[string]any, keys []string) string {
	for _, key := range keys {
		if s := stringValue(obj[key]); s != "" {
			return s
		}
	}
	return ""
}

// stringValue renders a JSON value as text. Objects contribute their
// "name" or "display_name" member; arrays and null are empty.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	case map[string]any:
		return strings.TrimSpace(firstString(val, nestedNameKeys))
	default:
		return ""
	}
}
