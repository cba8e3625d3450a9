package scoring

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// #endregion

// #region errors

var (
	// ErrTimeout marks a scoring call that exceeded its deadline.
	ErrTimeout = errors.New("scoring: timeout")
	// ErrService marks a backend-side failure (5xx or malformed reply).
	ErrService = errors.New("scoring: service error")
)

// #endregion errors

// #region types

// Request carries the prompt and bounded context for one scoring call.
type Request struct {
	Prompt  string
	Context []string
}

// Result is the structured outcome of a scoring call.
type Result struct {
	Score float32 `json:"score"`
	Reply string  `json:"reply"`
	Risk  float32 `json:"risk"`
}

// Scorer is the capability realities depend on; the HTTP client and test
// fakes both satisfy it.
type Scorer interface {
	Score(ctx context.Context, req Request) (Result, error)
}

// #endregion types

// #region client-struct

// Client wraps the HTTP transport to the OpenAI-compatible scoring service.
// Calls are idempotent, so timeouts and 5xx replies are retried a bounded
// number of times with backoff.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	backoff    time.Duration
	log        *zap.SugaredLogger
}

// NewClient builds a scoring client. timeout bounds each individual attempt.
func NewClient(baseURL, apiKey, model string, timeout time.Duration, maxRetries int, log *zap.SugaredLogger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
		log:        log,
	}
}

// #endregion client-struct

// #region wire-types

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// #endregion wire-types

// #region score

const systemPrompt = `You are a scoring service. Reply with a single JSON object: ` +
	`{"score": <0..1 action confidence>, "reply": "<suggested reply text>", "risk": <0..1>}.`

// Score runs one scoring call with bounded retries. The caller's ctx carries
// the overall deadline; each attempt is additionally bounded by the client
// timeout.
func (c *Client) Score(ctx context.Context, req Request) (Result, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{}, fmt.Errorf("score: %w", ErrTimeout)
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
		result, err := c.scoreOnce(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
		if c.log != nil {
			c.log.Debugw("scoring attempt failed", "attempt", attempt, "error", err)
		}
	}
	return Result{}, lastErr
}

func (c *Client) scoreOnce(ctx context.Context, req Request) (Result, error) {
	var sb strings.Builder
	for _, line := range req.Context {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(req.Prompt)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: sb.String()},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return Result{}, fmt.Errorf("score rpc: %w", ErrTimeout)
		}
		return Result{}, fmt.Errorf("score rpc: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Result{}, fmt.Errorf("score rpc status %d: %w", resp.StatusCode, ErrService)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("scoring: unexpected status %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", ErrService)
	}
	if len(chat.Choices) == 0 {
		return Result{}, fmt.Errorf("empty choices: %w", ErrService)
	}
	return parseResult(chat.Choices[0].Message.Content)
}

// parseResult extracts the structured result from the model reply, tolerating
// prose around the JSON object.
func parseResult(content string) (Result, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Result{}, fmt.Errorf("no JSON object in reply: %w", ErrService)
	}
	var result Result
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return Result{}, fmt.Errorf("parse reply: %w", ErrService)
	}
	result.Score = clamp(result.Score)
	result.Risk = clamp(result.Risk)
	return result, nil
}

// #endregion score

// #region helpers

func retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrService)
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	var te timeouter
	return errors.As(err, &te) && te.Timeout()
}

func clamp(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
