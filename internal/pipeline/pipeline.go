package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/reviewscan/internal/model"
)

// Step is one stage of an analysis. Do records its output in the
// analysis and returns an error only when the analysis cannot continue.
type Step interface {
	Do(ctx context.Context, analysis *model.Analysis) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs steps in order and stops at the first error.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence. Cancellation is checked before each
// step. The first error is recorded in the analysis and returned.
func (p *Pipeline) Execute(ctx context.Context, analysis *model.Analysis) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("analysis canceled",
				"step", step.Name(),
				"source", analysis.Source,
				"reason", err,
			)
			analysis.Fail(err)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"source", analysis.Source,
		)

		if err := step.Do(ctx, analysis); err != nil {
			p.logger.Debug("step stopped the analysis",
				"step", step.Name(),
				"source", analysis.Source,
				"error", err,
			)
			analysis.Fail(err)
			return err
		}

		analysis.PerformedSteps = append(analysis.PerformedSteps, step.Name())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
