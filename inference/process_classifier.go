// Package inference runs the external classification model.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"credit-advisor/domain"
	"credit-advisor/metrics"
)

// waitDelay bounds how long Wait blocks on output pipes after the process is
// killed, in case a grandchild still holds them open.
const waitDelay = 2 * time.Second

// Options configure a ProcessClassifier.
type Options struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
	// Timeout bounds one run. Zero means no bound.
	Timeout time.Duration
	// MaxConcurrency caps simultaneous subprocesses. Zero means no cap.
	MaxConcurrency int
}

// ProcessClassifier classifies a profile by running one fresh subprocess per
// call. The process reads one JSON document on stdin and prints the label on
// stdout; exit code 0 is the only success.
type ProcessClassifier struct {
	opts    Options
	slots   *semaphore.Weighted
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewProcessClassifier creates a classifier from opts.
func NewProcessClassifier(opts Options, logger *zap.Logger, m *metrics.Metrics) *ProcessClassifier {
	c := &ProcessClassifier{
		opts:    opts,
		logger:  logger.Named("inference"),
		metrics: m,
	}
	if opts.MaxConcurrency > 0 {
		c.slots = semaphore.NewWeighted(int64(opts.MaxConcurrency))
	}
	return c
}

// Classify runs the model once on profile. No retries are attempted.
func (c *ProcessClassifier) Classify(ctx context.Context, profile domain.Profile) (domain.RiskClass, error) {
	start := time.Now()
	label, err := c.classify(ctx, profile)
	c.metrics.RecordInference(outcome(err), time.Since(start))
	return label, err
}

func (c *ProcessClassifier) classify(ctx context.Context, profile domain.Profile) (domain.RiskClass, error) {
	input, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
	}
	defer cancel()

	if c.slots != nil {
		if err := c.slots.Acquire(runCtx, 1); err != nil {
			return "", c.contextFailure(ctx, runCtx, "", err)
		}
		defer c.slots.Release(1)
	}

	cmd := exec.CommandContext(runCtx, c.opts.Command, c.opts.Args...)
	cmd.Dir = c.opts.Dir
	if len(c.opts.Env) > 0 {
		cmd.Env = c.opts.Env
	}
	cmd.WaitDelay = waitDelay
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("Starting classifier",
		zap.String("command", c.opts.Command),
		zap.Strings("args", c.opts.Args),
		zap.Int("input_bytes", len(input)),
	)

	if err := cmd.Start(); err != nil {
		if runCtx.Err() != nil {
			return "", c.contextFailure(ctx, runCtx, "", runCtx.Err())
		}
		c.logger.Error("Failed to start classifier", zap.String("command", c.opts.Command), zap.Error(err))
		return "", &domain.InferenceError{Kind: domain.InferenceSpawn, ExitCode: -1, Err: err}
	}

	err = cmd.Wait()
	if runCtx.Err() != nil {
		return "", c.contextFailure(ctx, runCtx, stderr.String(), runCtx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", &domain.InferenceError{Kind: domain.InferenceSpawn, ExitCode: -1, Detail: stderr.String(), Err: err}
		}
		c.logger.Warn("Classifier exited with failure",
			zap.Int("exit_code", exitErr.ExitCode()),
			zap.String("stderr", stderr.String()),
		)
		return "", &domain.InferenceError{
			Kind:     domain.InferenceExit,
			ExitCode: exitErr.ExitCode(),
			Detail:   stderr.String(),
			Err:      err,
		}
	}

	label := strings.TrimSpace(stdout.String())
	if label == "" {
		return "", &domain.InferenceError{Kind: domain.InferenceEmpty, Detail: stderr.String()}
	}

	if !domain.RiskClass(label).Known() {
		c.logger.Warn("Classifier returned an unrecognized label", zap.String("label", label))
	}
	c.logger.Debug("Classifier finished", zap.String("label", label))
	return domain.RiskClass(label), nil
}

// contextFailure tells a timeout apart from the caller going away.
func (c *ProcessClassifier) contextFailure(parent, run context.Context, detail string, err error) error {
	if parent.Err() == nil && errors.Is(run.Err(), context.DeadlineExceeded) {
		c.logger.Warn("Classifier timed out", zap.Duration("timeout", c.opts.Timeout))
		return &domain.InferenceError{Kind: domain.InferenceTimedOut, ExitCode: -1, Detail: detail, Err: err}
	}
	return &domain.InferenceError{Kind: domain.InferenceCanceled, ExitCode: -1, Detail: detail, Err: parent.Err()}
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var ie *domain.InferenceError
	if errors.As(err, &ie) {
		return string(ie.Kind)
	}
	return "error"
}
