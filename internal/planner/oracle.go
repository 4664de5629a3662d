package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/josephgoksu/weekplan/internal/utils"
)

// Oracle proposes a weekly arrangement for a request. Its output is untrusted.
type Oracle interface {
	Generate(ctx context.Context, req PlanRequest) (RawCandidate, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, req PlanRequest) (RawCandidate, error)

// Generate calls f.
func (f OracleFunc) Generate(ctx context.Context, req PlanRequest) (RawCandidate, error) {
	return f(ctx, req)
}

const (
	// MaxGenerationRetries is the maximum number of attempts per Generate call
	MaxGenerationRetries = 3

	// RetryDelay is the base delay between attempts
	RetryDelay = 500 * time.Millisecond

	// DefaultMaxTokens bounds the size of a chat model answer
	DefaultMaxTokens = 2000
)

// LLMOracleConfig configures an LLMOracle.
type LLMOracleConfig struct {
	// Temperature for generation (0 = deterministic)
	Temperature float32
	MaxTokens   int
	MaxAttempts int
	RetryDelay  time.Duration
}

// LLMOracle asks a chat model for a plan. Transient provider errors and
// answers without a readable day mapping are retried, the latter with the
// parse error fed back into the prompt.
type LLMOracle struct {
	chatModel model.BaseChatModel
	cfg       LLMOracleConfig
}

// NewLLMOracle wraps a chat model.
func NewLLMOracle(chatModel model.BaseChatModel, cfg LLMOracleConfig) *LLMOracle {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = MaxGenerationRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = RetryDelay
	}
	return &LLMOracle{chatModel: chatModel, cfg: cfg}
}

// Generate renders the request prompt and returns the model's answer. The
// last answer is returned even if it does not parse, leaving the final
// verdict to Validate.
func (o *LLMOracle) Generate(ctx context.Context, req PlanRequest) (RawCandidate, error) {
	var (
		feedback string
		lastErr  error
	)
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		prompt, err := req.render(feedback)
		if err != nil {
			return "", err
		}

		messages := []*schema.Message{
			schema.SystemMessage("You are a weekly planner. You answer with a single JSON object and nothing else."),
			schema.UserMessage(prompt),
		}
		resp, err := o.chatModel.Generate(ctx, messages,
			model.WithTemperature(o.cfg.Temperature),
			model.WithMaxTokens(o.cfg.MaxTokens),
		)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			lastErr = fmt.Errorf("LLM generate: %w", err)
			if isTransientError(err) && attempt < o.cfg.MaxAttempts {
				slog.Debug("transient oracle error, retrying", "attempt", attempt, "error", err)
				if err := sleep(ctx, o.cfg.RetryDelay*time.Duration(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", &GenerationError{Attempts: attempt, Err: lastErr}
		}

		content := ""
		if resp != nil {
			content = strings.TrimSpace(resp.Content)
		}
		if content == "" {
			lastErr = errors.New("empty response from model")
			if attempt < o.cfg.MaxAttempts {
				continue
			}
			return "", &GenerationError{Attempts: attempt, Err: lastErr}
		}

		if _, err := ParseCandidate(RawCandidate(content)); err != nil && attempt < o.cfg.MaxAttempts {
			slog.Debug("unreadable oracle answer, retrying", "attempt", attempt, "error", err)
			feedback = formatErrorFeedback("Parse Error", err.Error(), content)
			if err := sleep(ctx, o.cfg.RetryDelay); err != nil {
				return "", err
			}
			continue
		}
		return RawCandidate(content), nil
	}
	return "", &GenerationError{Attempts: o.cfg.MaxAttempts, Err: lastErr}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// maxFeedbackRunes bounds how much of a failed answer is echoed back.
const maxFeedbackRunes = 500

// formatErrorFeedback creates a prompt section for error feedback.
func formatErrorFeedback(errorType, errorMsg, rawOutput string) string {
	truncated := rawOutput
	if len([]rune(truncated)) > maxFeedbackRunes {
		truncated = utils.Truncate(truncated, maxFeedbackRunes) + " [truncated]"
	}

	return fmt.Sprintf(`
PREVIOUS ATTEMPT FAILED - PLEASE FIX

Error Type: %s
Error: %s

Your previous output (which failed):
%s

Please answer with one JSON object keyed by weekday, each value a list of tasks.
`, errorType, errorMsg, truncated)
}

// isTransientError checks if an error is transient and worth retrying.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())

	// Rate limit errors
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "quota exceeded") {
		return true
	}

	// Network and overload errors
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "temporary") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "503")
}
