// Package boiler calls the external text generation service to wrap a
// code body in language boilerplate. The response is noisy LLM output;
// the caller-side Clean pass strips markup before the text is used.
package boiler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

var ErrEmptyOutput = errors.New("generation produced no usable output")

type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

func New(url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

const promptTemplate = `
Generate ONLY %s boilerplate code.
DO NOT FIX user code.
DO NOT explain.
DO NOT add markdown.
Wrap this USER BODY inside correct %s boilerplate:

USER BODY:
%s
`

// Generate asks the service for boilerplate around body and returns
// the cleaned text. Too-short output after cleaning counts as failure.
func (c *Client) Generate(ctx context.Context, language, body string) (string, error) {
	prompt := fmt.Sprintf(promptTemplate, language, language, body)

	payload, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	url := c.url
	if c.apiKey != "" {
		url += "?key=" + c.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation service: unexpected status %d", resp.StatusCode)
	}

	text := gjson.GetBytes(raw, "candidates.0.content.parts.0.text").String()
	cleaned := Clean(text)
	if len(cleaned) < 5 {
		log.Warn().Str("module", "services.boiler").Str("language", language).Msg("generation output unusable")
		return "", ErrEmptyOutput
	}
	return cleaned, nil
}

var (
	fencedBlockRe = regexp.MustCompile("```[\\s\\S]*?```")
	fenceRe       = regexp.MustCompile("```")
	nonASCIIRe    = regexp.MustCompile(`[^\x00-\x7F]`)
	fillerRe      = regexp.MustCompile(`(?i)Here is( the)? code:?|Output:?|Explanation:?`)
)

// Clean strips markdown fences, backticks, non-ASCII noise and the
// filler phrases the service tends to prepend.
func Clean(text string) string {
	text = fencedBlockRe.ReplaceAllString(text, "")
	text = fenceRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "`", "")
	text = nonASCIIRe.ReplaceAllString(text, "")
	text = fillerRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
