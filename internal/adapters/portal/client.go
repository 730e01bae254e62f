package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"sessionwatch/internal/domain"
)

// envelope is the portal response body: {"data": [...]}.
type envelope struct {
	Data []json.RawMessage `json:"data"`
}

type httpSource struct {
	client *http.Client
	url    string
	cookie string
}

// NewHTTPSource returns a source that fetches the session catalog from url.
// A non-empty cookie is sent as the Cookie header.
func NewHTTPSource(client *http.Client, url, cookie string) domain.SessionSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpSource{client: client, url: url, cookie: cookie}
}

func (s *httpSource) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: portal returned status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode portal response: %w", domain.ErrSourceUnavailable, err)
	}
	if body.Data == nil {
		return nil, fmt.Errorf("%w: portal response has no data array", domain.ErrSourceUnavailable)
	}
	return body.Data, nil
}

type fileSource struct {
	path string
}

// NewFileSource returns a source that reads a saved portal response from path.
// The file may hold the {"data": [...]} envelope or a bare array.
func NewFileSource(path string) domain.SessionSource {
	return &fileSource{path: path}
}

func (s *fileSource) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	records, err := decodeRecords(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, s.path, err)
	}
	return records, nil
}

func decodeRecords(b []byte) ([]json.RawMessage, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	if b[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(b, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var body envelope
	if err := json.Unmarshal(b, &body); err != nil {
		return nil, err
	}
	if body.Data == nil {
		return nil, errors.New("no data array")
	}
	return body.Data, nil
}
