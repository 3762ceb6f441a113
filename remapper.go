// Package remap computes the overlap of the cells of two meshes so that
// fields can be transferred between them while conserving their integrals.
//
// A Remapper indexes the cells of a target mesh in a bounding box tree. Each
// source cell queries the tree for candidate target cells and a kernel
// specific to the mesh dimension measures the overlap of every candidate
// pair. The overlaps form an interpolation Matrix with one row per target
// cell and one column per source cell.
package remap

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/soypat/remap/bbtree"
	"github.com/soypat/remap/mesh"
	"github.com/soypat/remap/refcount"
	"golang.org/x/sync/errgroup"
)

// State is the stage of a Remapper.
type State int

const (
	Idle State = iota
	TreeBuilt
	Iterating
	Done
)

var stateNames = []string{"Idle", "TreeBuilt", "Iterating", "Done"}

func (s State) String() string { return enumString(stateNames, int(s)) }

// Option configures a Remapper.
type Option func(*Remapper)

// WithLogger sets the logger. The default is logrus.StandardLogger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Remapper) { r.log = l }
}

// WithMetrics makes runs update m.
func WithMetrics(m *Metrics) Option {
	return func(r *Remapper) { r.metrics = m }
}

// Result is the outcome of a run.
type Result struct {
	RunID uuid.UUID
	// Matrix rows are target cells, columns source cells.
	Matrix *Matrix
	// Measures of every cell, degenerate ones included.
	SourceMeasures []float64
	TargetMeasures []float64
	// Warnings lists the excluded degenerate cells, target cells first.
	Warnings []DegenerateGeometryWarning
}

// Remapper computes the interpolation matrix from one source mesh onto its
// target mesh. It goes through Idle, TreeBuilt, Iterating and Done once; use
// Reuse to run another source against the same target.
type Remapper struct {
	target  mesh.Mesh
	opts    Options
	kernel  Kernel
	log     logrus.FieldLogger
	metrics *Metrics

	mu    sync.Mutex
	state State
	index *targetIndex
}

// targetIndex is the read-only data built over the target mesh, shared by
// reused remappers.
type targetIndex struct {
	tree *bbtree.Tree
	// ids maps tree elements to target cells.
	ids      []int
	measures []float64
	warnings []DegenerateGeometryWarning
}

// New returns an Idle remapper onto target.
func New(target mesh.Mesh, opts Options, options ...Option) (*Remapper, error) {
	if target == nil {
		return nil, errors.New("remap: nil target mesh")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	k, err := NewKernel(target.MeshDim(), target.SpaceDim(), opts)
	if err != nil {
		return nil, err
	}
	r := &Remapper{
		target: target,
		opts:   opts,
		kernel: k,
		log:    logrus.StandardLogger(),
	}
	for _, o := range options {
		o(r)
	}
	return r, nil
}

// State returns the current stage.
func (r *Remapper) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Options returns a copy of the options in use.
func (r *Remapper) Options() Options { return r.opts }

// BuildTree measures the target cells and indexes the boxes of the non
// degenerate ones, inflated per the options. It does nothing when the tree
// already exists.
func (r *Remapper) BuildTree() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buildTree()
}

func (r *Remapper) buildTree() error {
	if r.index != nil {
		return nil
	}
	release, err := borrow(r.target, r.log)
	if err != nil {
		return fmt.Errorf("remap: target mesh: %w", err)
	}
	defer release()

	n := r.target.NumCells()
	sdim := r.target.SpaceDim()
	deg := degenerate(&r.opts, r.kernel.MeshDim())
	idx := &targetIndex{measures: make([]float64, n)}
	boxes := make([]float64, 0, 2*sdim*n)
	for i := 0; i < n; i++ {
		c := mesh.CellOf(r.target, i)
		m, err := r.kernel.Measure(c)
		if err != nil {
			return fmt.Errorf("remap: target mesh: %w", err)
		}
		idx.measures[i] = m
		if m < deg {
			w := DegenerateGeometryWarning{Mesh: "target", Cell: i, Measure: m}
			idx.warnings = append(idx.warnings, w)
			r.metrics.addDegenerate(w.Mesh)
			r.log.WithFields(logrus.Fields{"mesh": w.Mesh, "cell": i, "measure": m}).Warn("degenerate cell excluded")
			continue
		}
		idx.ids = append(idx.ids, i)
		boxes = append(boxes, c.Bounds()...)
	}
	bbtree.Inflate(boxes, sdim, r.opts.BoundingBoxAdjustment(), r.opts.BoundingBoxAdjustmentAbs())
	idx.tree, err = bbtree.New(sdim, boxes)
	if err != nil {
		return fmt.Errorf("remap: target mesh: %w", err)
	}
	r.index = idx
	r.state = TreeBuilt
	r.log.WithFields(logrus.Fields{
		"cells": idx.tree.Len(),
		"depth": idx.tree.Depth(),
	}).Debug("target tree built")
	return nil
}

// Reuse returns a remapper in state TreeBuilt sharing the target tree of r,
// building it first if needed.
func (r *Remapper) Reuse() (*Remapper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.buildTree(); err != nil {
		return nil, err
	}
	return &Remapper{
		target:  r.target,
		opts:    r.opts,
		kernel:  r.kernel,
		log:     r.log,
		metrics: r.metrics,
		state:   TreeBuilt,
		index:   r.index,
	}, nil
}

// Run computes the interpolation matrix from source onto the target. Any
// topology error aborts the run and no matrix is returned. A remapper runs
// once, later calls return ErrAlreadyRun.
func (r *Remapper) Run(source mesh.Mesh) (*Result, error) {
	if source == nil {
		return nil, errors.New("remap: nil source mesh")
	}
	r.mu.Lock()
	if r.state == Iterating || r.state == Done {
		r.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	if source.MeshDim() != r.target.MeshDim() || source.SpaceDim() != r.target.SpaceDim() {
		r.mu.Unlock()
		return nil, &DimensionMismatchError{
			SourceMeshDim: source.MeshDim(), SourceSpaceDim: source.SpaceDim(),
			TargetMeshDim: r.target.MeshDim(), TargetSpaceDim: r.target.SpaceDim(),
		}
	}
	if err := r.buildTree(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.state = Iterating
	r.mu.Unlock()

	res, err := r.run(source)

	r.mu.Lock()
	r.state = Done
	r.mu.Unlock()
	return res, err
}

func (r *Remapper) run(source mesh.Mesh) (*Result, error) {
	start := time.Now()
	releaseSrc, err := borrow(source, r.log)
	if err != nil {
		return nil, fmt.Errorf("remap: source mesh: %w", err)
	}
	defer releaseSrc()
	releaseTgt, err := borrow(r.target, r.log)
	if err != nil {
		return nil, fmt.Errorf("remap: target mesh: %w", err)
	}
	defer releaseTgt()

	id := uuid.New()
	log := r.log.WithField("run", id.String())
	n := source.NumCells()
	deg := degenerate(&r.opts, r.kernel.MeshDim())
	measures := make([]float64, n)
	excluded := make([]bool, n)
	// contrib[i] holds the overlaps of source cell i keyed by target cell.
	// Workers own disjoint source cells so no slot is written twice.
	contrib := make([][]Entry, n)
	var candidates atomic.Int64

	workers := r.opts.Workers()
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			var buf []int
			for i := w; i < n; i += workers {
				if ctx.Err() != nil {
					return nil
				}
				c := mesh.CellOf(source, i)
				m, err := r.kernel.Measure(c)
				if err != nil {
					return fmt.Errorf("remap: source mesh: %w", err)
				}
				measures[i] = m
				if m < deg {
					excluded[i] = true
					continue
				}
				buf, err = r.index.tree.AppendQuery(buf[:0], c.Bounds())
				if err != nil {
					return err
				}
				candidates.Add(int64(len(buf)))
				for _, e := range buf {
					j := r.index.ids[e]
					v, err := r.kernel.Intersect(c, mesh.CellOf(r.target, j))
					if err != nil {
						return fmt.Errorf("remap: source cell %d, target cell %d: %w", i, j, err)
					}
					if r.accept(v, m) {
						contrib[i] = append(contrib[i], Entry{Col: j, Weight: v})
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("run aborted")
		return nil, err
	}

	warnings := append([]DegenerateGeometryWarning(nil), r.index.warnings...)
	for i, x := range excluded {
		if !x {
			continue
		}
		w := DegenerateGeometryWarning{Mesh: "source", Cell: i, Measure: measures[i]}
		warnings = append(warnings, w)
		r.metrics.addDegenerate(w.Mesh)
		log.WithFields(logrus.Fields{"mesh": w.Mesh, "cell": i, "measure": w.Measure}).Warn("degenerate cell excluded")
	}

	rows := make([][]Entry, r.target.NumCells())
	nnz := 0
	for i, cs := range contrib {
		for _, e := range cs {
			rows[e.Col] = append(rows[e.Col], Entry{Col: i, Weight: e.Weight})
		}
		nnz += len(cs)
	}
	res := &Result{
		RunID:          id,
		Matrix:         newMatrix(r.target.NumCells(), n, rows),
		SourceMeasures: measures,
		TargetMeasures: r.index.measures,
		Warnings:       warnings,
	}
	r.metrics.addCandidates(int(candidates.Load()))
	r.metrics.addWeights(nnz)
	r.metrics.observeRun(time.Since(start))
	log.WithFields(logrus.Fields{
		"candidates": candidates.Load(),
		"weights":    nnz,
		"elapsed":    time.Since(start),
	}).Info("run done")
	return res, nil
}

// accept applies the intersection policy to an overlap v of a source cell of
// measure srcMeasure.
func (r *Remapper) accept(v, srcMeasure float64) bool {
	if v <= 0 {
		return false
	}
	if r.opts.IntersectionPolicy() == PolicyStrict {
		return srcMeasure-v <= r.opts.Precision()*srcMeasure+degenerate(&r.opts, r.kernel.MeshDim())
	}
	return v >= r.opts.MinMeasure()
}

// targetIndex returns the index of the target, building it if needed.
func (r *Remapper) targetIndex() (*targetIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.buildTree(); err != nil {
		return nil, err
	}
	return r.index, nil
}

// candidates returns the sorted target cells whose box holds pt.
func (idx *targetIndex) candidates(dst []int, pt []float64) ([]int, error) {
	elems, err := idx.tree.QueryPoint(pt)
	if err != nil {
		return dst, err
	}
	for _, e := range elems {
		dst = append(dst, idx.ids[e])
	}
	sort.Ints(dst)
	return dst, nil
}

// Locate returns the target cells containing pt, boundary included. The tree
// is built if needed.
func (r *Remapper) Locate(pt []float64) ([]int, error) {
	idx, err := r.targetIndex()
	if err != nil {
		return nil, err
	}
	cands, err := idx.candidates(nil, pt)
	if err != nil {
		return nil, err
	}
	loc := r.kernel.(locator)
	var cells []int
	for _, j := range cands {
		in, err := loc.contains(mesh.CellOf(r.target, j), pt)
		if err != nil {
			return nil, err
		}
		if in {
			cells = append(cells, j)
		}
	}
	return cells, nil
}

// NodeWeights returns the matrix carrying a field known at the target nodes
// to the points pts, given interleaved by component. Row i holds the weights
// of point i in the lowest numbered target cell containing it, the
// barycentric coordinates of the point in a simplex of cell nodes, so linear
// fields are reproduced exactly. Points outside the target mesh, or only in
// degenerate cells, get an empty row. Columns are target nodes.
func (r *Remapper) NodeWeights(pts []float64) (*Matrix, error) {
	sdim := r.target.SpaceDim()
	if len(pts)%sdim != 0 {
		return nil, fmt.Errorf("remap: %d point coordinates in %dD space", len(pts), sdim)
	}
	idx, err := r.targetIndex()
	if err != nil {
		return nil, err
	}
	release, err := borrow(r.target, r.log)
	if err != nil {
		return nil, fmt.Errorf("remap: target mesh: %w", err)
	}
	defer release()

	w := r.kernel.(weigher)
	n := len(pts) / sdim
	rows := make([][]Entry, n)
	var cands []int
	for i := range rows {
		pt := pts[i*sdim : (i+1)*sdim]
		cands, err = idx.candidates(cands[:0], pt)
		if err != nil {
			return nil, err
		}
		for _, j := range cands {
			row, ok, err := w.weights(mesh.CellOf(r.target, j), pt)
			if err != nil {
				return nil, fmt.Errorf("remap: target cell %d: %w", j, err)
			}
			if ok {
				rows[i] = row
				break
			}
		}
	}
	return newMatrix(n, r.target.NumNodes(), rows), nil
}

// borrow takes a reference on m when it is reference counted and returns the
// function giving it back.
func borrow(m mesh.Mesh, log logrus.FieldLogger) (release func(), err error) {
	o, ok := m.(refcount.Object)
	if !ok {
		return func() {}, nil
	}
	if err := o.IncrRef(); err != nil {
		return nil, err
	}
	return func() {
		if _, err := o.DecrRef(); err != nil {
			log.WithError(err).Error("mesh reference release failed")
		}
	}, nil
}
