// Package restapi is a small client for the JSON posts sandbox the API
// scenarios exercise. It returns every response, whatever the status, so
// callers assert on status and body themselves.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const maxBodySize = 1 << 20

// Post is the sandbox's post resource.
type Post struct {
	ID     int    `json:"id,omitempty"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Has reports whether the JSON body has a value at path (gjson syntax).
func (r *Response) Has(path string) bool {
	return gjson.GetBytes(r.Body, path).Exists()
}

// Get returns the value at path (gjson syntax).
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if !gjson.ValidBytes(r.Body) {
		return fmt.Errorf("response body is not valid JSON (status %d)", r.Status)
	}
	return json.Unmarshal(r.Body, v)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) GetPost(ctx context.Context, id int) (*Response, error) {
	return c.do(ctx, http.MethodGet, postPath(id), nil)
}

func (c *Client) CreatePost(ctx context.Context, p Post) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/posts", p)
}

func (c *Client) UpdatePost(ctx context.Context, id int, p Post) (*Response, error) {
	return c.do(ctx, http.MethodPut, postPath(id), p)
}

func (c *Client) DeletePost(ctx context.Context, id int) (*Response, error) {
	return c.do(ctx, http.MethodDelete, postPath(id), nil)
}

func postPath(id int) string { return "/posts/" + strconv.Itoa(id) }

func (c *Client) do(ctx context.Context, method, path string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}
