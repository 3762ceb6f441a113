package remap

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Option keys accepted by SetOption and configuration files.
const (
	KeyPrecision                = "Precision"
	KeyMedianPlane              = "MedianPlane"
	KeyBoundingBoxAdjustment    = "BoundingBoxAdjustment"
	KeyBoundingBoxAdjustmentAbs = "BoundingBoxAdjustmentAbs"
	KeyIntersectionType         = "IntersectionType"
	KeySplittingPolicy          = "SplittingPolicy"
	KeyIntersectionPolicy       = "IntersectionPolicy"
	KeyMinMeasure               = "MinMeasure"
	KeyWorkers                  = "Workers"
	KeyMaxDistance3DSurf        = "MaxDistance3DSurfIntersect"
)

// IntersectionPolicy decides which candidate pairs contribute a weight.
type IntersectionPolicy int

const (
	// PolicyTolerant keeps every overlap of at least MinMeasure.
	PolicyTolerant IntersectionPolicy = iota
	// PolicyStrict keeps a pair only when the source cell lies inside the
	// target cell up to Precision.
	PolicyStrict
)

var policyNames = []string{"Tolerant", "Strict"}

func (p IntersectionPolicy) String() string { return enumString(policyNames, int(p)) }

// Intersection2D selects the planar clipping algorithm.
type Intersection2D int

const (
	// Triangulation splits both polygons in signed triangles. Handles any
	// simple polygon.
	Triangulation Intersection2D = iota
	// Convex clips the source against the target, which must be convex.
	Convex
	// Geometric2D uses a general polygon boolean.
	Geometric2D
)

var intersection2DNames = []string{"Triangulation", "Convex", "Geometric2D"}

func (t Intersection2D) String() string { return enumString(intersection2DNames, int(t)) }

// SplittingPolicy selects how hexahedra are split in tetrahedra.
type SplittingPolicy int

const (
	// PlanarFace5 splits hexahedra with planar faces in 5 tetrahedra.
	PlanarFace5 SplittingPolicy = iota
	// PlanarFace6 splits hexahedra with planar faces in 6 tetrahedra.
	PlanarFace6
	// General24 splits every face around its centre, 4 tetrahedra per
	// quadrangle. Exact for warped faces.
	General24
	// General48 is General24 with every face triangle halved again at its
	// edge midpoint, 8 tetrahedra per quadrangle.
	General48
)

var splittingNames = []string{"PLANAR_FACE_5", "PLANAR_FACE_6", "GENERAL_24", "GENERAL_48"}

func (s SplittingPolicy) String() string { return enumString(splittingNames, int(s)) }

func enumString(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("%%!(%d)", v)
	}
	return names[v]
}

func parseEnum(names []string, s string) (int, bool) {
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, true
		}
	}
	return 0, false
}

// Options configures the kernels and the remapper. The zero value is not
// valid, start from DefaultOptions. Setters validate their argument and leave
// the options untouched on error. Options are copied into a Remapper and never
// modified during a run.
type Options struct {
	precision      float64
	medianPlane    float64
	bboxAdjust     float64
	bboxAdjustAbs  float64
	minMeasure     float64
	policy         IntersectionPolicy
	intersection2D Intersection2D
	splitting      SplittingPolicy
	workers        int
	maxDist3DSurf  float64
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		precision:     1e-12,
		medianPlane:   0.5,
		bboxAdjust:    0.1,
		maxDist3DSurf: -1,
	}
}

func (o *Options) Precision() float64                     { return o.precision }
func (o *Options) MedianPlane() float64                   { return o.medianPlane }
func (o *Options) BoundingBoxAdjustment() float64         { return o.bboxAdjust }
func (o *Options) BoundingBoxAdjustmentAbs() float64      { return o.bboxAdjustAbs }
func (o *Options) MinMeasure() float64                    { return o.minMeasure }
func (o *Options) IntersectionPolicy() IntersectionPolicy { return o.policy }
func (o *Options) Intersection2D() Intersection2D         { return o.intersection2D }
func (o *Options) SplittingPolicy() SplittingPolicy       { return o.splitting }
func (o *Options) Workers() int                           { return o.workers }
func (o *Options) MaxDistance3DSurfIntersect() float64    { return o.maxDist3DSurf }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// SetPrecision sets the distance under which coordinates are coincident.
func (o *Options) SetPrecision(v float64) error {
	if !finite(v) || v <= 0 {
		return &ConfigurationError{Key: KeyPrecision, Value: v, Reason: "must be positive"}
	}
	o.precision = v
	return nil
}

// SetMedianPlane positions the line on which 1D cells are projected, 0 is the
// target segment and 1 the source segment.
func (o *Options) SetMedianPlane(v float64) error {
	if !(v >= 0 && v <= 1) {
		return &ConfigurationError{Key: KeyMedianPlane, Value: v, Reason: "must be in [0,1]"}
	}
	o.medianPlane = v
	return nil
}

// SetBoundingBoxAdjustment sets the box inflation relative to its largest
// extent.
func (o *Options) SetBoundingBoxAdjustment(v float64) error {
	if !finite(v) || v < 0 {
		return &ConfigurationError{Key: KeyBoundingBoxAdjustment, Value: v, Reason: "must be non-negative"}
	}
	o.bboxAdjust = v
	return nil
}

// SetBoundingBoxAdjustmentAbs sets the absolute box inflation. It is also the
// distance within which 1D cells are considered to overlap.
func (o *Options) SetBoundingBoxAdjustmentAbs(v float64) error {
	if !finite(v) || v < 0 {
		return &ConfigurationError{Key: KeyBoundingBoxAdjustmentAbs, Value: v, Reason: "must be non-negative"}
	}
	o.bboxAdjustAbs = v
	return nil
}

// SetMinMeasure sets the overlap below which tolerant runs drop a pair.
func (o *Options) SetMinMeasure(v float64) error {
	if !finite(v) || v < 0 {
		return &ConfigurationError{Key: KeyMinMeasure, Value: v, Reason: "must be non-negative"}
	}
	o.minMeasure = v
	return nil
}

func (o *Options) SetIntersectionPolicy(p IntersectionPolicy) error {
	if p != PolicyTolerant && p != PolicyStrict {
		return &ConfigurationError{Key: KeyIntersectionPolicy, Value: p, Reason: "unknown policy"}
	}
	o.policy = p
	return nil
}

func (o *Options) SetIntersection2D(t Intersection2D) error {
	if t < Triangulation || t > Geometric2D {
		return &ConfigurationError{Key: KeyIntersectionType, Value: t, Reason: "unknown intersection type"}
	}
	o.intersection2D = t
	return nil
}

func (o *Options) SetSplittingPolicy(s SplittingPolicy) error {
	if s < PlanarFace5 || s > General48 {
		return &ConfigurationError{Key: KeySplittingPolicy, Value: s, Reason: "unknown splitting policy"}
	}
	o.splitting = s
	return nil
}

// SetWorkers sets the number of goroutines of a run, 0 means GOMAXPROCS.
func (o *Options) SetWorkers(n int) error {
	if n < 0 {
		return &ConfigurationError{Key: KeyWorkers, Value: n, Reason: "must be non-negative"}
	}
	o.workers = n
	return nil
}

// SetMaxDistance3DSurfIntersect sets the distance between the planes of two
// surface cells beyond which they do not overlap. A negative value disables
// the check.
func (o *Options) SetMaxDistance3DSurfIntersect(v float64) error {
	if !finite(v) {
		return &ConfigurationError{Key: KeyMaxDistance3DSurf, Value: v, Reason: "must be finite"}
	}
	o.maxDist3DSurf = v
	return nil
}

// Validate checks every field. It catches Options not built from
// DefaultOptions.
func (o *Options) Validate() error {
	cp := *o
	for _, err := range []error{
		cp.SetPrecision(o.precision),
		cp.SetMedianPlane(o.medianPlane),
		cp.SetBoundingBoxAdjustment(o.bboxAdjust),
		cp.SetBoundingBoxAdjustmentAbs(o.bboxAdjustAbs),
		cp.SetMinMeasure(o.minMeasure),
		cp.SetIntersectionPolicy(o.policy),
		cp.SetIntersection2D(o.intersection2D),
		cp.SetSplittingPolicy(o.splitting),
		cp.SetWorkers(o.workers),
		cp.SetMaxDistance3DSurfIntersect(o.maxDist3DSurf),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// SetOption sets the option named key. Numeric values may be given as any
// type cast understands, enumerations by name or by value.
func (o *Options) SetOption(key string, value any) error {
	bad := func(err error) error {
		return &ConfigurationError{Key: key, Value: value, Reason: err.Error()}
	}
	switch key {
	case KeyPrecision, KeyMedianPlane, KeyBoundingBoxAdjustment, KeyBoundingBoxAdjustmentAbs, KeyMinMeasure, KeyMaxDistance3DSurf:
		v, err := cast.ToFloat64E(value)
		if err != nil {
			return bad(err)
		}
		switch key {
		case KeyPrecision:
			return o.SetPrecision(v)
		case KeyMedianPlane:
			return o.SetMedianPlane(v)
		case KeyBoundingBoxAdjustment:
			return o.SetBoundingBoxAdjustment(v)
		case KeyBoundingBoxAdjustmentAbs:
			return o.SetBoundingBoxAdjustmentAbs(v)
		case KeyMaxDistance3DSurf:
			return o.SetMaxDistance3DSurfIntersect(v)
		}
		return o.SetMinMeasure(v)
	case KeyWorkers:
		v, err := cast.ToIntE(value)
		if err != nil {
			return bad(err)
		}
		return o.SetWorkers(v)
	case KeyIntersectionPolicy:
		v, err := enumValue(policyNames, value)
		if err != nil {
			return bad(err)
		}
		return o.SetIntersectionPolicy(IntersectionPolicy(v))
	case KeyIntersectionType:
		v, err := enumValue(intersection2DNames, value)
		if err != nil {
			return bad(err)
		}
		return o.SetIntersection2D(Intersection2D(v))
	case KeySplittingPolicy:
		v, err := enumValue(splittingNames, value)
		if err != nil {
			return bad(err)
		}
		return o.SetSplittingPolicy(SplittingPolicy(v))
	}
	return &ConfigurationError{Key: key, Value: value, Reason: "unknown option"}
}

func enumValue(names []string, value any) (int, error) {
	switch v := value.(type) {
	case IntersectionPolicy:
		return int(v), nil
	case Intersection2D:
		return int(v), nil
	case SplittingPolicy:
		return int(v), nil
	case string:
		if i, ok := parseEnum(names, v); ok {
			return i, nil
		}
		return 0, fmt.Errorf("want one of %s", strings.Join(names, ", "))
	}
	return cast.ToIntE(value)
}
