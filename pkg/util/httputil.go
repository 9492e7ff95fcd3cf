package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is the timeout of the shared client used when none is given.
const DefaultTimeout = 30 * time.Second

var client = &http.Client{Timeout: DefaultTimeout}

// NewHTTPClient returns a client bounded by the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// NewHTTPRequest function builds and executes an http call bound to the
// given context. It returns the status code and the body of the response.
// @param method <string>: http method
// @param url <string>: URL http to call
// @return <int>, <[]byte>, error
func NewHTTPRequest(
	ctx context.Context, httpClient *http.Client,
	method, url string, body []byte, header map[string]string,
) (int, []byte, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return 0, nil, fmt.Errorf("verb not supported %s", method)
	}
	if httpClient == nil {
		httpClient = client
	}

	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, err
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return rs.StatusCode, bodyBytes, nil
}

// GetJSON performs a GET request and decodes a 2xx JSON response into out.
func GetJSON(
	ctx context.Context, httpClient *http.Client,
	url string, header map[string]string, out interface{},
) error {
	status, body, err := NewHTTPRequest(
		ctx, httpClient, http.MethodGet, url, nil, header,
	)
	if err != nil {
		return err
	}
	return decodeJSONResponse(status, body, out)
}

// PostJSON encodes in as JSON, performs a POST request and decodes a 2xx
// JSON response into out, if not nil.
func PostJSON(
	ctx context.Context, httpClient *http.Client,
	url string, header map[string]string, in, out interface{},
) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	if header == nil {
		header = map[string]string{}
	}
	header["Content-Type"] = "application/json"

	status, respBody, err := NewHTTPRequest(
		ctx, httpClient, http.MethodPost, url, body, header,
	)
	if err != nil {
		return err
	}
	return decodeJSONResponse(status, respBody, out)
}

// StatusError is returned for non 2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func decodeJSONResponse(status int, body []byte, out interface{}) error {
	if status < 200 || status >= 300 {
		return &StatusError{status, string(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response body: %w", err)
	}
	return nil
}
