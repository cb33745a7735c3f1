package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// Relation is the ordering of the short moving average against the long one on a single bar.
type Relation int

const (
	// RelationUndefined means at least one of the averages is still warming up.
	RelationUndefined Relation = iota
	RelationShortBelow
	RelationShortEqual
	RelationShortAbove
)

func (r Relation) String() string {
	switch r {
	case RelationShortBelow:
		return "short-below"
	case RelationShortEqual:
		return "short-equal"
	case RelationShortAbove:
		return "short-above"
	default:
		return "undefined"
	}
}

// IsDefined reports whether both averages were available.
func (r Relation) IsDefined() bool {
	return r != RelationUndefined
}

// Compare orders short against long. Values are compared exactly.
func Compare(short optional.Option[float64], long optional.Option[float64]) Relation {
	if short.IsNone() || long.IsNone() {
		return RelationUndefined
	}

	s, l := short.Unwrap(), long.Unwrap()

	switch {
	case s > l:
		return RelationShortAbove
	case s < l:
		return RelationShortBelow
	default:
		return RelationShortEqual
	}
}

// DetectCrossover turns the relations of two consecutive bars into a signal.
// Equality counts as "not yet crossed": a cross needs the current bar to be strictly on the other
// side, and a previous tie may be left in either direction.
func DetectCrossover(previous Relation, current Relation) types.SignalType {
	if !previous.IsDefined() || !current.IsDefined() {
		return types.SignalTypeNone
	}

	switch {
	case previous != RelationShortAbove && current == RelationShortAbove:
		return types.SignalTypeEnterLong
	case previous != RelationShortBelow && current == RelationShortBelow:
		return types.SignalTypeEnterShort
	default:
		return types.SignalTypeNone
	}
}
