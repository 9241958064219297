// Package importer drives the provisioning workflow from an external course
// list. It is a plain iteration driver: parse, provision, wait, repeat.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"coursebot/internal/course/models"
	"coursebot/internal/course/service"
)

// DefaultDelay is the pause between provisioning calls, respecting the chat
// platform's rate limits.
const DefaultDelay = 1500 * time.Millisecond

// courseList matches the course list file layout:
// {"courses":[{"num":"CS101","name":"Intro to CS"},...]}.
type courseList struct {
	Courses []courseEntry `json:"courses"`
}

type courseEntry struct {
	Number string `json:"num"`
	Name   string `json:"name"`
}

// Provisioner is the single operation the importer drives.
type Provisioner interface {
	Provision(ctx context.Context, number, name string) (*models.CourseRecord, error)
}

// Importer provisions every course in a list, one at a time, in order.
type Importer struct {
	provisioner Provisioner
	logger      *slog.Logger
	delay       time.Duration
	policy      service.ErrorPolicy
}

// Option configures an Importer.
type Option func(*Importer)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

// WithDelay overrides the pause between provisioning calls.
func WithDelay(delay time.Duration) Option {
	return func(i *Importer) {
		i.delay = delay
	}
}

// WithPolicy overrides the error policy. The default, PolicyContinue, logs a
// failed course and moves on to the next one.
func WithPolicy(policy service.ErrorPolicy) Option {
	return func(i *Importer) {
		i.policy = policy
	}
}

func New(provisioner Provisioner, opts ...Option) (*Importer, error) {
	if provisioner == nil {
		return nil, errors.New("provisioner is required")
	}
	imp := &Importer{
		provisioner: provisioner,
		logger:      slog.New(slog.DiscardHandler),
		delay:       DefaultDelay,
		policy:      service.PolicyContinue,
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp, nil
}

// RunFile imports the course list at path.
func (i *Importer) RunFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open course list: %w", err)
	}
	defer f.Close()
	return i.Run(ctx, f)
}

// Run imports a course list read from r. Each entry is provisioned with the
// configured delay in between; what a failed entry does depends on the error
// policy.
func (i *Importer) Run(ctx context.Context, r io.Reader) error {
	var list courseList
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return fmt.Errorf("decode course list: %w", err)
	}

	total := len(list.Courses)
	for n, entry := range list.Courses {
		i.logger.InfoContext(ctx, "loading course",
			"number", entry.Number,
			"progress", fmt.Sprintf("%d/%d", n+1, total),
		)

		if _, err := i.provisioner.Provision(ctx, entry.Number, entry.Name); err != nil {
			i.logger.ErrorContext(ctx, "failed to set up course",
				"number", entry.Number,
				"error", err,
			)
			if i.policy == service.PolicyAbort {
				return fmt.Errorf("import %q: %w", entry.Number, err)
			}
		}

		if n == total-1 {
			break
		}
		select {
		case <-time.After(i.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	i.logger.InfoContext(ctx, "course import done", "total", total)
	return nil
}
