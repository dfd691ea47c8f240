package depot

import "errors"

// ErrConsistency signals that the bidders of one auction round did not
// converge on exactly one winner. The allocation protocol relies on
// exactly-one-winner semantics, so this is an invariant violation, not a
// recoverable condition.
var ErrConsistency = errors.New("auction consistency fault")
