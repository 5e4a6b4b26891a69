// Package extension implements the fold-with-short-circuit combinator
// shared by every extension chain in the system (server incoming,
// session incoming, server outgoing, session outgoing). It knows
// nothing about Broker, Session or Channel — callers build a []Step
// closing over whatever state a given hook needs, which keeps this
// package free of import-cycle concerns.
package extension

// Step is one hook in a chain: it runs a side effect against whatever
// state its closure captured and reports whether the chain should
// continue.
type Step func() (cont bool, err error)

// Fold runs steps in order, stopping at the first step that returns
// cont=false or a non-nil error. It propagates the step's error to the
// caller — this is the "server incoming extensions propagate
// exceptions" half of the asymmetry spec.md §9 calls out.
func Fold(steps []Step) (bool, error) {
	for _, step := range steps {
		cont, err := step()
		if err != nil {
			return false, err
		}
		if !cont {
			return false, nil
		}
	}
	return true, nil
}

// FoldRecover runs steps in order like Fold, but a step that returns an
// error is treated as cont=true rather than aborting the chain — this
// is the "session incoming extensions catch exceptions as continue"
// half of the same asymmetry. The error is still returned to the
// caller (for logging) once the whole chain has run; it never vetoes
// the message.
func FoldRecover(steps []Step) (bool, []error) {
	var errs []error
	for _, step := range steps {
		cont, err := step()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !cont {
			return false, errs
		}
	}
	return true, errs
}
