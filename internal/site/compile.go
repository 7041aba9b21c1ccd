package site

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/kiln/internal/deps"
	"github.com/roach88/kiln/internal/engine"
	"github.com/roach88/kiln/internal/events"
	"github.com/roach88/kiln/internal/ir"
	"github.com/roach88/kiln/internal/outdated"
	"github.com/roach88/kiln/internal/output"
	"github.com/roach88/kiln/internal/store"
)

// CompileResult summarizes a successful compilation.
type CompileResult struct {
	RunID    string                     `json:"run_id"`
	Reps     int                        `json:"reps"`
	Outdated []ir.RepKey                `json:"outdated"`
	Reasons  map[string]outdated.Reason `json:"reasons"`
	Compiled []ir.RepKey                `json:"compiled"`
	Written  []string                   `json:"written"`
	Pruned   []string                   `json:"pruned"`
}

// session holds the resources of one compiler invocation.
type session struct {
	reps     []*ir.Rep
	meta     *store.Store
	compiler *engine.Compiler
	writer   *output.Writer
	prior    *outdated.Prior
	close    func() error
}

// open loads the site and wires a compiler to its stores.
func (s *Site) open(ctx context.Context) (*session, error) {
	sources, reps, err := s.Load()
	if err != nil {
		return nil, err
	}

	meta, err := s.openMetadata()
	if err != nil {
		return nil, err
	}
	prior, err := meta.LoadPrior(ctx)
	if err != nil {
		meta.Close()
		return nil, err
	}

	snaps, err := s.openSnapshots()
	if err != nil {
		meta.Close()
		return nil, err
	}

	bus := events.NewBus(events.LogSink{Logger: s.logger})
	for _, sink := range s.sinks {
		bus.Attach(sink)
	}

	writer := output.NewWriter(s.cfg.Site.OutputDir, s.logger)
	compiler, err := engine.New(reps, snaps, s.filters, writer,
		engine.WithLayouts(sources.Layouts),
		engine.WithRouter(s.router),
		engine.WithBus(bus),
		engine.WithLogger(s.logger),
	)
	if err != nil {
		snaps.Close()
		meta.Close()
		return nil, err
	}

	return &session{
		reps:     reps,
		meta:     meta,
		compiler: compiler,
		writer:   writer,
		prior:    prior,
		close: func() error {
			return errors.Join(snaps.Close(), meta.Close())
		},
	}, nil
}

// Compile compiles every outdated rep, persists run metadata and prunes
// stale output files when configured to.
func (s *Site) Compile(ctx context.Context) (res *CompileResult, err error) {
	started := s.clock.Now()

	sess, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sess.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	run, err := sess.compiler.Run(ctx, sess.prior)
	if err != nil {
		s.logger.Error("compilation failed", "error", err)
		return nil, err
	}

	record, err := s.record(sess, run)
	if err != nil {
		return nil, err
	}
	record.StartedAt = started
	record.FinishedAt = s.clock.Now()
	if err := sess.meta.SaveRun(ctx, record); err != nil {
		return nil, fmt.Errorf("persist run metadata: %w", err)
	}

	res = &CompileResult{
		RunID:    record.ID,
		Reps:     len(sess.reps),
		Outdated: run.Outdated,
		Reasons:  make(map[string]outdated.Reason, len(run.Reasons)),
		Compiled: run.Compiled,
		Written:  run.Written,
	}
	for key, reason := range run.Reasons {
		res.Reasons[key.String()] = reason
	}

	if s.cfg.Site.Prune {
		pruned, err := sess.writer.Prune(sitePaths(s.router, sess.reps))
		if err != nil {
			return nil, fmt.Errorf("prune output: %w", err)
		}
		res.Pruned = pruned
	}

	s.logger.Info("compilation finished",
		"run", record.ID,
		"outdated", len(run.Outdated),
		"compiled", len(run.Compiled),
		"written", len(run.Written),
		"pruned", len(res.Pruned))
	return res, nil
}

// record builds the metadata to persist for a finished run.
func (s *Site) record(sess *session, run *engine.Result) (store.RunRecord, error) {
	sums, err := sess.compiler.Checker().Checksums(sess.reps)
	if err != nil {
		return store.RunRecord{}, err
	}

	var priorGraph *deps.Tracker
	if sess.prior != nil {
		priorGraph, err = deps.Load(sess.prior.Edges)
		if err != nil {
			return store.RunRecord{}, fmt.Errorf("load prior dependencies: %w", err)
		}
	}
	live := make([]ir.RepKey, len(sess.reps))
	for i, rep := range sess.reps {
		live[i] = rep.Key
	}

	return store.RunRecord{
		ID:        s.runIDs.Generate(),
		RepCount:  len(sess.reps),
		Written:   len(run.Written),
		Checksums: sums,
		Edges:     deps.Merge(priorGraph, sess.compiler.Tracker(), run.Compiled, live),
		Compiled:  run.Compiled,
	}, nil
}

// Outdated reports which reps the next compilation would recompile, and why,
// without compiling anything.
func (s *Site) Outdated(ctx context.Context) (res *outdated.Result, err error) {
	sess, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sess.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return sess.compiler.Checker().OutdatedSet(sess.reps, sess.prior)
}
