package turnengine

import "context"

// Move describes a proposed transition, in whatever notation the rule
// oracle understands. From and To are opaque square or slot names;
// Promotion is optional.
type Move struct {
	From      string
	To        string
	Promotion string
}

// Ruling is the oracle's answer to a legality question.
type Ruling struct {
	Legal  bool
	Reason string
}

// Effects describes the externally-determined side effects of an
// applied transition: captures, check states and game termination.
// The engine treats these as opaque facts supplied by the oracle and
// forwards them on events and outcomes.
type Effects struct {
	Notation  string
	Captured  string
	Promotion string
	Check     bool
	Checkmate bool
	Stalemate bool
	Draw      bool
	Winner    string
}

// RuleOracle decides legality and side effects of a proposed state
// transition. The engine treats it as a black box: any implementation
// capable of answering these two questions satisfies the contract.
//
// Validate must not mutate the aggregate. Apply mutates the aggregate
// in place and returns the resulting side effects; implementations
// must either apply the transition fully or leave the aggregate
// untouched and return an error.
type RuleOracle interface {
	Validate(ctx context.Context, agg Aggregate, move Move) (Ruling, error)
	Apply(ctx context.Context, agg Aggregate, move Move) (Effects, error)
}
