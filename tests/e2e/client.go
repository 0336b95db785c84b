package e2e

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/oapi-codegen/runtime"

	"simpleseq/internal/model"
)

// APIError surfaces non-2xx responses from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type Sequence struct {
	Name   string        `json:"name"`
	Length int           `json:"length"`
	Values []model.Value `json:"values"`
}

type element struct {
	Found bool        `json:"found"`
	Value model.Value `json:"value"`
}

type valuesBody struct {
	Values []model.Value `json:"values"`
}

// Create makes a new sequence holding values.
func (c *Client) Create(ctx context.Context, name string, values ...model.Value) (Sequence, error) {
	var out Sequence
	err := c.do(ctx, http.MethodPut, c.seqPath(name, ""), nil, valuesBody{Values: values}, &out)
	return out, err
}

// Get returns the whole sequence; ErrNotFound when it does not exist.
func (c *Client) Get(ctx context.Context, name string) (Sequence, error) {
	var out Sequence
	err := c.do(ctx, http.MethodGet, c.seqPath(name, ""), nil, nil, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, c.seqPath(name, ""), nil, nil, nil)
}

// Append adds values to the end and returns the new length.
func (c *Client) Append(ctx context.Context, name string, values ...model.Value) (int, error) {
	var out struct {
		Length int `json:"length"`
	}
	err := c.do(ctx, http.MethodPost, c.seqPath(name, "/append"), nil, valuesBody{Values: values}, &out)
	return out.Length, err
}

// RemoveLast pops the last element; found is false on an empty sequence.
func (c *Client) RemoveLast(ctx context.Context, name string) (model.Value, bool, error) {
	var out element
	err := c.do(ctx, http.MethodPost, c.seqPath(name, "/remove-last"), nil, nil, &out)
	return out.Value, out.Found, err
}

// Splice removes count elements at start and inserts values there. A nil
// count removes everything from start on.
func (c *Client) Splice(ctx context.Context, name string, start int, count *int, values ...model.Value) ([]model.Value, error) {
	body := struct {
		Start  int           `json:"start"`
		Count  *int          `json:"count,omitempty"`
		Values []model.Value `json:"values,omitempty"`
	}{start, count, values}
	var out valuesBody
	err := c.do(ctx, http.MethodPost, c.seqPath(name, "/splice"), nil, body, &out)
	return out.Values, err
}

// Concat returns the named sequences joined end to end.
func (c *Client) Concat(ctx context.Context, names ...string) ([]model.Value, error) {
	query := url.Values{"names": {strings.Join(names, ",")}}
	var out valuesBody
	err := c.do(ctx, http.MethodGet, "/v1/concat", query, nil, &out)
	return out.Values, err
}

func (c *Client) seqPath(name, suffix string) string {
	param, err := runtime.StyleParamWithLocation("simple", false, "name", runtime.ParamLocationPath, name)
	if err != nil {
		panic(fmt.Sprintf("encode name %q: %v", name, err))
	}
	return "/v1/seq/" + param + suffix
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	case resp.StatusCode >= 300:
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
