package qaoa

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/qaoa/internal/events"
	"github.com/aristath/qaoa/internal/modules/circuit"
	"github.com/aristath/qaoa/internal/modules/hamiltonian"
	"github.com/aristath/qaoa/internal/modules/qubo"
	"github.com/aristath/qaoa/internal/modules/runs"
	"github.com/aristath/qaoa/internal/modules/simulator"
)

// SolveRequest solves an optimization problem given as a polynomial
// expression over binary variables.
type SolveRequest struct {
	Expression    string
	Depth         int
	MaxIterations int
	Shots         int
	Backend       string
	InitialParams []float64 // optional; drawn uniformly from [0, 2pi) when absent
}

// RunRequest runs QAOA against an already-built Hamiltonian supplied as
// parallel Pauli/coefficient arrays.
type RunRequest struct {
	NumQubits     int
	Paulis        []string
	Coeffs        []float64
	Depth         int
	MaxIterations int
	Shots         int
	Backend       string
	InitialParams []float64
}

// OutcomeProbability is one sampled bitstring with its empirical probability
type OutcomeProbability struct {
	Bitstring   string  `json:"bitstring"`
	Probability float64 `json:"probability"`
}

// Result is the outcome of a completed solve
type Result struct {
	RunID           string
	OptimalCost     float64
	OptimalParams   []float64
	Gamma           []float64
	Beta            []float64
	CostOffset      float64
	Counts          simulator.Counts
	Probabilities   []OutcomeProbability // sorted by descending probability
	Iterations      int
	NumQubits       int
	Converged       bool
	VariableMapping map[string]string // qubit label -> variable identifier
	History         []Evaluation
}

// ServiceConfig holds the service's dependencies
type ServiceConfig struct {
	Local  *simulator.Simulator
	Remote *simulator.RemoteBackend // nil when no remote evaluator is configured
	Runs   *runs.Repository         // nil disables persistence
	Events *events.Manager          // nil disables event emission
	Seed   int64                    // initial-parameter draws; 0 seeds from the clock
	Log    zerolog.Logger
}

// Service wires expression conversion, circuit construction, optimization
// and sampling into the full QAOA pipeline.
type Service struct {
	local  *simulator.Simulator
	remote *simulator.RemoteBackend
	runs   *runs.Repository
	events *events.Manager
	log    zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates a new QAOA service
func NewService(cfg ServiceConfig) *Service {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{
		local:  cfg.Local,
		remote: cfg.Remote,
		runs:   cfg.Runs,
		events: cfg.Events,
		log:    cfg.Log.With().Str("service", "qaoa").Logger(),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Solve converts an expression to a QUBO, maps it onto a cost Hamiltonian
// and runs the optimization and sampling pipeline.
func (s *Service) Solve(ctx context.Context, req SolveRequest) (*Result, error) {
	matrix, indexToVar, err := qubo.FromExpression(req.Expression)
	if err != nil {
		return nil, err
	}

	h, offset := hamiltonian.FromQUBO(matrix)

	mapping := make(map[string]string, len(indexToVar))
	for idx, v := range indexToVar {
		mapping[fmt.Sprintf("q%d", idx)] = v.ID()
	}

	result, err := s.execute(ctx, h, offset, runMeta{
		expression: req.Expression,
		backend:    req.Backend,
		depth:      req.Depth,
		maxIter:    req.MaxIterations,
		shots:      req.Shots,
		initial:    req.InitialParams,
	})
	if err != nil {
		return nil, err
	}
	result.VariableMapping = mapping
	return result, nil
}

// RunHamiltonian runs the pipeline against a pre-built Hamiltonian
func (s *Service) RunHamiltonian(ctx context.Context, req RunRequest) (*Result, error) {
	h, err := hamiltonian.FromLists(req.NumQubits, req.Paulis, req.Coeffs)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, h, 0, runMeta{
		backend: req.Backend,
		depth:   req.Depth,
		maxIter: req.MaxIterations,
		shots:   req.Shots,
		initial: req.InitialParams,
	})
}

// optimizerRestarts is the number of independent random starts tried when
// the caller does not pin initial parameters. The best run wins.
const optimizerRestarts = 8

type runMeta struct {
	expression string
	backend    string
	depth      int
	maxIter    int
	shots      int
	initial    []float64
}

func (s *Service) execute(ctx context.Context, h *hamiltonian.Hamiltonian, offset float64, meta runMeta) (*Result, error) {
	// Backend selection happens before any computation
	backend, err := simulator.ForSelector(meta.backend, s.local, s.remote)
	if err != nil {
		return nil, err
	}

	if meta.depth < 1 {
		return nil, fmt.Errorf("depth must be >= 1, got %d", meta.depth)
	}
	if meta.maxIter < 1 {
		return nil, fmt.Errorf("max iterations must be >= 1, got %d", meta.maxIter)
	}
	if meta.shots < 1 {
		return nil, fmt.Errorf("shots must be >= 1, got %d", meta.shots)
	}

	ansatz, err := circuit.NewAnsatz(h, meta.depth)
	if err != nil {
		return nil, err
	}

	// Caller-pinned initial parameters get a single optimization run from
	// exactly that point. Without them, several independent random starts
	// are tried: Nelder-Mead from one start can stall in a shallow local
	// optimum of the non-convex QAOA landscape, and the restarts are what
	// make the lowest-energy bitstring reliably dominate the final samples.
	var starts [][]float64
	if meta.initial != nil {
		if len(meta.initial) != 2*meta.depth {
			return nil, fmt.Errorf("%w: expected %d initial parameters, got %d",
				circuit.ErrParameterCount, 2*meta.depth, len(meta.initial))
		}
		starts = [][]float64{meta.initial}
	} else {
		starts = make([][]float64, optimizerRestarts)
		for i := range starts {
			starts[i] = s.randomInitialParams(meta.depth)
		}
	}

	runID := uuid.New().String()
	startedAt := time.Now()

	s.log.Info().
		Str("run_id", runID).
		Int("num_qubits", h.NumQubits()).
		Int("depth", meta.depth).
		Int("max_iterations", meta.maxIter).
		Msg("Starting QAOA optimization")

	if s.events != nil {
		s.events.EmitTyped("qaoa", &events.RunStartedData{
			RunID:     runID,
			Backend:   meta.backend,
			NumQubits: h.NumQubits(),
			Depth:     meta.depth,
			MaxIter:   meta.maxIter,
		})
	}

	objective := func(params []float64) (float64, error) {
		gamma := params[:meta.depth]
		beta := params[meta.depth:]
		c, err := ansatz.Build(gamma, beta)
		if err != nil {
			return 0, err
		}
		return backend.Evaluate(ctx, c, h)
	}

	optimizer := NewOptimizer(meta.maxIter, s.log)
	optimizer.OnEvaluation(func(eval Evaluation) {
		if s.events != nil {
			s.events.EmitTyped("qaoa", &events.RunIterationData{
				RunID:     runID,
				Iteration: eval.Iteration,
				Cost:      eval.Value,
			})
		}
	})

	var run *Run
	for _, start := range starts {
		attempt, err := optimizer.Minimize(ctx, objective, start)
		if err != nil {
			s.failRun(ctx, runID, meta, err)
			return nil, err
		}
		if run == nil || attempt.BestValue < run.BestValue {
			run = attempt
		}
	}

	gamma := run.BestParams[:meta.depth]
	beta := run.BestParams[meta.depth:]

	// Final readout: rebuild at the best parameters and sample. Pure read of
	// the optimized state, no further optimization.
	finalCircuit, err := ansatz.Build(gamma, beta)
	if err != nil {
		s.failRun(ctx, runID, meta, err)
		return nil, err
	}

	counts, err := backend.Sample(ctx, finalCircuit, meta.shots)
	if err != nil {
		s.failRun(ctx, runID, meta, err)
		return nil, err
	}

	result := &Result{
		RunID:         runID,
		OptimalCost:   run.BestValue,
		OptimalParams: run.BestParams,
		Gamma:         gamma,
		Beta:          beta,
		CostOffset:    offset,
		Counts:        counts,
		Probabilities: sortedProbabilities(counts, meta.shots),
		Iterations:    run.Iterations,
		NumQubits:     h.NumQubits(),
		Converged:     run.Converged,
		History:       run.History,
	}

	s.persistRun(ctx, runID, meta, result, startedAt)

	if s.events != nil {
		s.events.EmitTyped("qaoa", &events.RunCompletedData{
			RunID:       runID,
			OptimalCost: result.OptimalCost,
			Iterations:  result.Iterations,
			Converged:   result.Converged,
			Elapsed:     time.Since(startedAt),
		})
	}

	s.log.Info().
		Str("run_id", runID).
		Float64("optimal_cost", result.OptimalCost).
		Int("iterations", result.Iterations).
		Bool("converged", result.Converged).
		Msg("QAOA optimization complete")

	return result, nil
}

// randomInitialParams draws 2*depth parameters uniformly from [0, 2pi)
func (s *Service) randomInitialParams(depth int) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	params := make([]float64, 2*depth)
	for i := range params {
		params[i] = s.rng.Float64() * 2 * math.Pi
	}
	return params
}

// sortedProbabilities normalizes counts by total shots and sorts by
// descending probability, ties broken by bitstring for determinism
func sortedProbabilities(counts simulator.Counts, shots int) []OutcomeProbability {
	out := make([]OutcomeProbability, 0, len(counts))
	for bitstring, count := range counts {
		out = append(out, OutcomeProbability{
			Bitstring:   bitstring,
			Probability: float64(count) / float64(shots),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return out[i].Bitstring < out[j].Bitstring
	})
	return out
}

func (s *Service) persistRun(ctx context.Context, runID string, meta runMeta, result *Result, startedAt time.Time) {
	if s.runs == nil {
		return
	}

	history := make([]runs.HistoryEntry, len(result.History))
	for i, eval := range result.History {
		history[i] = runs.HistoryEntry{
			Iteration: eval.Iteration,
			Params:    eval.Params,
			Cost:      eval.Value,
		}
	}

	record := runs.Record{
		ID:            runID,
		Expression:    meta.expression,
		Backend:       backendLabel(meta.backend),
		Depth:         meta.depth,
		Shots:         meta.shots,
		NumQubits:     result.NumQubits,
		OptimalCost:   result.OptimalCost,
		OptimalParams: result.OptimalParams,
		Counts:        result.Counts,
		Iterations:    result.Iterations,
		Converged:     result.Converged,
		Status:        runs.StatusCompleted,
		History:       history,
		CreatedAt:     startedAt,
	}

	if err := s.runs.Save(ctx, record); err != nil {
		// Persistence is best-effort; the result is still returned
		s.log.Error().Err(err).Str("run_id", runID).Msg("Failed to persist run")
	}
}

func (s *Service) failRun(ctx context.Context, runID string, meta runMeta, cause error) {
	if s.events != nil {
		s.events.EmitTyped("qaoa", &events.RunFailedData{
			RunID: runID,
			Error: cause.Error(),
		})
	}

	if s.runs == nil {
		return
	}
	record := runs.Record{
		ID:         runID,
		Expression: meta.expression,
		Backend:    backendLabel(meta.backend),
		Depth:      meta.depth,
		Shots:      meta.shots,
		Status:     runs.StatusFailed,
		Error:      cause.Error(),
		CreatedAt:  time.Now(),
	}
	if err := s.runs.Save(ctx, record); err != nil {
		s.log.Error().Err(err).Str("run_id", runID).Msg("Failed to persist failed run")
	}
}

func backendLabel(selector string) string {
	if selector == "" {
		return simulator.SelectorSimulator
	}
	return selector
}
