package redcap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Credentials identify a REDCap project: the API endpoint URL and the
// project-scoped API token.
type Credentials struct {
	URL    string
	APIKey string
}

// APIError is an error payload returned by the REDCap API in place of the
// requested content.
type APIError struct {
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("REDCap API returned an error while fetching %s: %s", e.Endpoint, e.Message)
}

// LookupError indicates that a record filter matched zero or multiple
// records where exactly one was expected.
type LookupError struct {
	IdentifierField string
	RecordID        string
	Matches         int
}

func (e *LookupError) Error() string {
	if e.Matches < 1 {
		return fmt.Sprintf("no records found where '%s' = %s", e.IdentifierField, e.RecordID)
	}
	return fmt.Sprintf("%d records found where '%s' = %s (expected only 1)",
		e.Matches, e.IdentifierField, e.RecordID)
}

// Client talks to a single REDCap project's API.
// All endpoints are form-encoded POSTs against the same URL.
type Client struct {
	creds      Credentials
	httpClient *http.Client
}

// NewClient creates a REDCap API client for the given credentials.
func NewClient(creds Credentials) *Client {
	return &Client{
		creds:      creds,
		httpClient: &http.Client{},
	}
}

// Metadata fetches the project's field-metadata list (the data dictionary).
func (c *Client) Metadata(ctx context.Context) (Metadata, error) {
	form := url.Values{
		"token":   {c.creds.APIKey},
		"content": {"metadata"},
		"format":  {"json"},
	}

	body, err := c.post(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("metadata request failed: %w", err)
	}
	if msg, isErr := errorPayload(body); isErr {
		return nil, &APIError{Endpoint: "metadata", Message: msg}
	}

	var md Metadata
	if err := json.Unmarshal(body, &md); err != nil {
		return nil, fmt.Errorf("failed to decode metadata response: %w", err)
	}
	return md, nil
}

// Record fetches the single record whose identifierField equals recordID.
// The API's filterLogic returns a list even for a single match; zero or
// multiple matches yield a *LookupError naming the filter that was used.
func (c *Client) Record(ctx context.Context, identifierField, recordID string) (RawRecord, error) {
	form := url.Values{
		"token":       {c.creds.APIKey},
		"content":     {"record"},
		"format":      {"json"},
		"type":        {"flat"},
		"filterLogic": {fmt.Sprintf("[%s] = '%s'", identifierField, recordID)},
	}

	body, err := c.post(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("record request failed: %w", err)
	}
	if msg, isErr := errorPayload(body); isErr {
		return nil, &APIError{Endpoint: fmt.Sprintf("record %s", recordID), Message: msg}
	}

	// A well-formed filterLogic response is always a list, and the API
	// reports an empty one with 200 OK when nothing matches.
	var records []RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode record response: %w", err)
	}
	if len(records) != 1 {
		return nil, &LookupError{
			IdentifierField: identifierField,
			RecordID:        recordID,
			Matches:         len(records),
		}
	}
	return records[0], nil
}

// post sends a form-encoded POST to the project URL and returns the body.
func (c *Client) post(ctx context.Context, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.URL,
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// errorPayload reports whether the response body is a REDCap error object
// ({"error": "..."}) instead of the requested list, and extracts the message.
func errorPayload(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil || payload.Error == "" {
		return "", false
	}
	return payload.Error, true
}
