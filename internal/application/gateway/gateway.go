// Package gateway relays prompts to the downstream generator with quota
// warnings and post-stream usage accounting.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/domain/generation"
	"github.com/aigate/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	relayBufferSize  = 4 << 10
	commitTimeout    = 5 * time.Second
	tracerName       = "github.com/aigate/backend/gateway"
	defaultMaxPrompt = 5000
)

// Stream is the caller-facing response. Begin is called exactly once, before the first byte.
type Stream interface {
	Begin()
	io.Writer
	Flush()
}

// Caller identifies who is generating. An unattributed caller is never warned or charged.
type Caller struct {
	AccountID  int64
	Role       account.Role
	Attributed bool
}

// GenerateInput is a single generation request
type GenerateInput struct {
	Caller  Caller
	Prompt  string
	Model   string
	Options map[string]any
}

// Result describes how a generation call ended once streaming began
type Result struct {
	Warning   *account.QuotaWarning
	Completed bool
	Charged   bool
	Bytes     int64
}

// Config contains gateway settings
type Config struct {
	MaxPromptLength int
}

// Gateway is the quota-aware generation proxy
type Gateway struct {
	generator   generation.Generator
	usageLedger account.UsageLedger
	policy      account.QuotaPolicy
	metrics     *telemetry.GatewayMetrics
	config      Config
	logger      *zap.Logger
	tracer      trace.Tracer
}

// Option configures a Gateway
type Option func(*Gateway)

// WithMetrics attaches gateway metrics
func WithMetrics(m *telemetry.GatewayMetrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// NewGateway creates a new generation gateway
func NewGateway(
	generator generation.Generator,
	usageLedger account.UsageLedger,
	policy account.QuotaPolicy,
	config Config,
	logger *zap.Logger,
	opts ...Option,
) *Gateway {
	if config.MaxPromptLength <= 0 {
		config.MaxPromptLength = defaultMaxPrompt
	}
	g := &Gateway{
		generator:   generator,
		usageLedger: usageLedger,
		policy:      policy,
		config:      config,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate validates the prompt, opens the downstream stream, emits an optional
// quota warning frame, relays content and charges the caller after completion.
//
// A returned error means nothing was written to out. Once streaming has begun the
// error is always nil and Result reports whether the stream completed.
func (g *Gateway) Generate(ctx context.Context, input GenerateInput, out Stream) (*Result, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.generate", trace.WithAttributes(
		attribute.Bool("gateway.attributed", input.Caller.Attributed),
		attribute.String("gateway.role", string(input.Caller.Role)),
	))
	defer span.End()

	started := time.Now()
	charged := input.Caller.Attributed && !input.Caller.Role.IsPrivileged()

	prompt, err := generation.NormalizePrompt(input.Prompt, g.config.MaxPromptLength)
	if err != nil {
		g.recordCall(ctx, telemetry.OutcomeRejected, input.Caller.Attributed, 0)
		span.SetStatus(codes.Error, "invalid prompt")
		return nil, err
	}

	var warning *account.QuotaWarning
	if charged {
		warning = g.quotaWarning(ctx, input.Caller)
	}

	body, err := g.generator.Stream(ctx, generation.Request{
		Model:   input.Model,
		Prompt:  prompt,
		Options: input.Options,
	})
	if err != nil {
		g.logger.Error("Generator call failed",
			zap.Int64("account_id", input.Caller.AccountID),
			zap.Error(err))
		g.recordCall(ctx, telemetry.OutcomeUpstreamError, input.Caller.Attributed, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream error")
		return nil, err
	}
	defer body.Close()

	result := &Result{Warning: warning}
	out.Begin()

	if warning != nil {
		frame, err := json.Marshal(warning)
		if err == nil {
			frame = append(frame, '\n')
			_, err = out.Write(frame)
		}
		if err != nil {
			g.logger.Warn("Failed to write quota warning frame", zap.Error(err))
			g.recordCall(ctx, telemetry.OutcomeAborted, input.Caller.Attributed, time.Since(started))
			return result, nil
		}
		out.Flush()
		result.Bytes += int64(len(frame))
		if g.metrics != nil {
			g.metrics.RecordQuotaWarning(ctx, warning.LimitReached)
		}
	}

	n, err := relay(ctx, body, out)
	result.Bytes += n
	if err != nil {
		g.logger.Warn("Generation stream aborted",
			zap.Int64("account_id", input.Caller.AccountID),
			zap.Int64("bytes", result.Bytes),
			zap.Error(err))
		g.recordCall(ctx, telemetry.OutcomeAborted, input.Caller.Attributed, time.Since(started))
		span.SetStatus(codes.Error, "stream aborted")
		return result, nil
	}
	result.Completed = true

	if charged {
		result.Charged = g.commitUsage(ctx, input.Caller.AccountID)
	}

	span.SetAttributes(
		attribute.Int64("gateway.bytes", result.Bytes),
		attribute.Bool("gateway.charged", result.Charged),
	)
	g.recordCall(ctx, telemetry.OutcomeCompleted, input.Caller.Attributed, time.Since(started))
	return result, nil
}

// quotaWarning reads usage and builds the warning frame.
// A ledger failure is logged and yields no warning; generation is never blocked.
func (g *Gateway) quotaWarning(ctx context.Context, caller Caller) *account.QuotaWarning {
	used, err := g.usageLedger.Get(ctx, caller.AccountID)
	if err != nil {
		g.logger.Warn("Failed to read usage before generation",
			zap.Int64("account_id", caller.AccountID),
			zap.Error(err))
		return nil
	}
	return g.policy.Warning(caller.Role, used)
}

// commitUsage charges one call. Failures are logged and swallowed.
func (g *Gateway) commitUsage(ctx context.Context, accountID int64) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	if err := g.usageLedger.Increment(ctx, accountID); err != nil {
		g.logger.Error("Failed to increment API usage",
			zap.Int64("account_id", accountID),
			zap.Error(err))
		if g.metrics != nil {
			g.metrics.RecordUsageCommitFailure(ctx)
		}
		return false
	}
	return true
}

func (g *Gateway) recordCall(ctx context.Context, outcome telemetry.CallOutcome, attributed bool, d time.Duration) {
	if g.metrics != nil {
		g.metrics.RecordCall(ctx, outcome, attributed, d)
	}
}

// relay copies src to out chunk by chunk, flushing after each write.
// It returns nil only when src reports end of stream.
func relay(ctx context.Context, src io.Reader, out Stream) (int64, error) {
	buf := make([]byte, relayBufferSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			written, err := out.Write(buf[:n])
			total += int64(written)
			if err != nil {
				return total, err
			}
			if written < n {
				return total, io.ErrShortWrite
			}
			out.Flush()
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return total, nil
			}
			return total, readErr
		}
	}
}
