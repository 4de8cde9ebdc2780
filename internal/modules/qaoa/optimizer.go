// Package qaoa drives the classical optimization loop over QAOA circuit
// parameters and orchestrates the full solve pipeline.
package qaoa

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/optimize"
)

// Objective evaluates circuit parameters to a cost. An error aborts the
// optimization run and is surfaced as its cause.
type Objective func(params []float64) (float64, error)

// Evaluation is one recorded objective evaluation
type Evaluation struct {
	Iteration int       `json:"iteration"`
	Params    []float64 `json:"params"`
	Value     float64   `json:"cost"`
}

// Run accumulates the state of one optimization run. It is mutated only by
// the optimizer driving it. One run, one owner.
type Run struct {
	History    []Evaluation
	BestParams []float64
	BestValue  float64
	Converged  bool
	// Iterations counts objective evaluations actually performed
	Iterations int
}

func newRun() *Run {
	return &Run{BestValue: math.Inf(1)}
}

// record appends an evaluation and updates the incumbent best
func (r *Run) record(params []float64, value float64) Evaluation {
	r.Iterations++
	eval := Evaluation{
		Iteration: r.Iterations,
		Params:    append([]float64(nil), params...),
		Value:     value,
	}
	r.History = append(r.History, eval)
	if value < r.BestValue {
		r.BestValue = value
		r.BestParams = eval.Params
	}
	return eval
}

// Optimizer performs derivative-free minimization of a black-box objective.
// Nelder-Mead fills the COBYLA role here: constraint-free, gradient-free,
// iterative simplex refinement.
type Optimizer struct {
	maxIterations int
	onEvaluation  func(Evaluation)
	log           zerolog.Logger
}

// NewOptimizer creates an optimizer with an iteration budget
func NewOptimizer(maxIterations int, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		maxIterations: maxIterations,
		log:           log.With().Str("component", "optimizer").Logger(),
	}
}

// OnEvaluation registers an optional observability hook invoked for every
// recorded objective evaluation. No core behavior depends on it.
func (o *Optimizer) OnEvaluation(fn func(Evaluation)) {
	o.onEvaluation = fn
}

// Minimize searches parameter space from the initial point. The returned Run
// always carries whatever history was recorded, including when the search
// aborts on context cancellation or an objective failure. In those cases
// the error is non-nil and names the cause. Non-convergence within the
// iteration budget is NOT an error: the run is returned with
// Converged=false.
func (o *Optimizer) Minimize(ctx context.Context, objective Objective, initial []float64) (*Run, error) {
	run := newRun()
	var evalErr error

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			if evalErr != nil || ctx.Err() != nil {
				return math.NaN()
			}
			value, err := objective(params)
			if err != nil {
				evalErr = err
				return math.NaN()
			}
			eval := run.record(params, value)
			if o.onEvaluation != nil {
				o.onEvaluation(eval)
			}
			return value
		},
		Status: func() (optimize.Status, error) {
			if evalErr != nil {
				return optimize.Failure, evalErr
			}
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}

	// The stagnation window scales with the budget: gonum's default
	// FunctionConverge waits 100 stagnant iterations, which a budget at or
	// below 100 can never satisfy, leaving Converged permanently false.
	stagnation := o.maxIterations / 4
	if stagnation > 20 {
		stagnation = 20
	}
	if stagnation < 2 {
		stagnation = 2
	}

	settings := &optimize.Settings{
		MajorIterations: o.maxIterations,
		FuncEvaluations: o.maxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Iterations: stagnation,
		},
	}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if evalErr != nil {
		return run, fmt.Errorf("objective evaluation failed: %w", evalErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return run, fmt.Errorf("optimization cancelled: %w", ctxErr)
	}
	if err != nil {
		return run, fmt.Errorf("optimization failed: %w", err)
	}

	// IterationLimit and similar budget statuses are normal flagged results
	successStatuses := map[optimize.Status]bool{
		optimize.Success:             true,
		optimize.GradientThreshold:   true,
		optimize.FunctionConvergence: true,
		optimize.StepConvergence:     true,
	}
	run.Converged = successStatuses[result.Status]

	if run.BestParams == nil {
		return run, fmt.Errorf("optimizer performed no evaluations")
	}

	o.log.Debug().
		Int("iterations", run.Iterations).
		Float64("best_value", run.BestValue).
		Bool("converged", run.Converged).
		Str("status", result.Status.String()).
		Msg("Optimization finished")

	return run, nil
}
