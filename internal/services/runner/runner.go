// Package runner calls the external code execution service. The
// service is a black box: source + language + stdin in, stdout/stderr
// and an exit status out. Calls happen on the requester's goroutine,
// never inside a room critical section.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type langConfig struct {
	Language string
	Version  string
	Alias    string
}

var langConfigs = map[string]langConfig{
	"javascript": {"javascript", "18.15.0", "js"},
	"python":     {"python", "3.10.0", "py"},
	"java":       {"java", "15.0.2", "java"},
	"cpp":        {"c++", "10.2.0", "cpp"},
	"c":          {"c", "10.2.0", "c"},
	"csharp":     {"csharp", "6.12.0", "cs"},
	"go":         {"go", "1.16.2", "go"},
	"rust":       {"rust", "1.68.2", "rs"},
	"typescript": {"typescript", "5.0.3", "ts"},
	"ruby":       {"ruby", "3.0.1", "rb"},
	"php":        {"php", "8.2.3", "php"},
	"kotlin":     {"kotlin", "1.8.20", "kt"},
	"swift":      {"swift", "5.3.3", "swift"},
}

type Request struct {
	Language string
	Source   string
	Stdin    string
}

type Result struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitStatus int    `json:"exitStatus"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type executeRequest struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Files    []executeFile `json:"files"`
	Stdin    string        `json:"stdin"`
	Args     []string      `json:"args"`
}

type executeFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type executeStage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
	Code   int    `json:"code"`
	Signal string `json:"signal"`
}

type executeResponse struct {
	Compile *executeStage `json:"compile"`
	Run     *executeStage `json:"run"`
}

// Run submits the snippet and maps the service response onto
// stdout/stderr/exit status. A failed compile stage is the result; the
// run stage never happened.
func (c *Client) Run(ctx context.Context, req Request) (Result, error) {
	lc, ok := langConfigs[strings.ToLower(req.Language)]
	if !ok {
		return Result{}, fmt.Errorf("unsupported language %q", req.Language)
	}

	body, err := json.Marshal(executeRequest{
		Language: lc.Language,
		Version:  lc.Version,
		Files:    []executeFile{{Name: "main." + lc.Alias, Content: req.Source}},
		Stdin:    req.Stdin,
		Args:     []string{},
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal execute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("execution service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("execution service: unexpected status %d", resp.StatusCode)
	}

	var out executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode execute response: %w", err)
	}

	if out.Compile != nil && out.Compile.Code != 0 {
		stderr := out.Compile.Stderr
		if stderr == "" {
			stderr = out.Compile.Output
		}
		return Result{Stderr: stderr, ExitStatus: out.Compile.Code}, nil
	}
	if out.Run == nil {
		return Result{}, fmt.Errorf("execution service: empty run stage")
	}

	log.Debug().Str("module", "services.runner").Str("language", lc.Language).Int("code", out.Run.Code).Msg("executed")
	return Result{
		Stdout:     out.Run.Stdout,
		Stderr:     out.Run.Stderr,
		ExitStatus: out.Run.Code,
	}, nil
}

// Supported lists the language tags the runner accepts, sorted so the
// listing endpoint returns a stable order.
func Supported() []string {
	out := make([]string, 0, len(langConfigs))
	for tag := range langConfigs {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
