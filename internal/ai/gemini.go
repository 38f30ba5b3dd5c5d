// Package ai talks to the external text-generation service used to define
// words missing from the dictionary.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const maxResponseBytes = 1 << 20

// MaxUzbekLength matches the width of the words.uzbek column.
const MaxUzbekLength = 255

const promptTemplate = `Explain the English word "%s".
Return ONLY valid JSON in this format:

{
  "uzbek": "...",
  "definition": "..."
}`

// Definition is the structured answer extracted from a completion.
type Definition struct {
	Uzbek      string `json:"uzbek"`
	Definition string `json:"definition"`
}

// UpstreamError reports a transport failure, timeout or non-2xx response.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("definition provider request failed: %v", e.Err)
	}
	return fmt.Sprintf("definition provider returned status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedResponseError reports a completion that does not carry the
// expected JSON object.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed definition provider response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls a generateContent style endpoint.
type GeminiClient struct {
	apiURL     string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewGeminiClient builds a client. A nil httpClient gets one bounded by timeout.
func NewGeminiClient(apiURL, apiKey string, timeout time.Duration, httpClient *http.Client) *GeminiClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &GeminiClient{apiURL: apiURL, apiKey: apiKey, timeout: timeout, httpClient: httpClient}
}

// Define asks the provider for the Uzbek translation and definition of term.
// It makes exactly one request and never retries.
func (c *GeminiClient) Define(ctx context.Context, term string) (*Definition, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(promptTemplate, term)}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &UpstreamError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &MalformedResponseError{Raw: string(body), Err: err}
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, &MalformedResponseError{Raw: string(body), Err: errors.New("response has no candidates")}
	}

	text := decoded.Candidates[0].Content.Parts[0].Text
	def, err := ParseDefinition(text)
	if err != nil {
		return nil, &MalformedResponseError{Raw: text, Err: err}
	}
	return def, nil
}

func (c *GeminiClient) endpoint() (string, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid provider url: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseDefinition extracts the JSON object from a free-text completion. It
// tolerates Markdown code fences and prose around the object.
func ParseDefinition(text string) (*Definition, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("completion contains no JSON object")
	}

	var def Definition
	if err := json.Unmarshal([]byte(text[start:end+1]), &def); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}

	def.Uzbek = strings.TrimSpace(def.Uzbek)
	def.Definition = strings.TrimSpace(def.Definition)
	if def.Uzbek == "" {
		return nil, errors.New("completion is missing the uzbek field")
	}
	if utf8.RuneCountInString(def.Uzbek) > MaxUzbekLength {
		return nil, fmt.Errorf("uzbek field exceeds %d characters", MaxUzbekLength)
	}
	return &def, nil
}
