package engine

import (
	stderrs "errors"
	"strings"

	smerrors "github.com/Station-Manager/errors"
	"github.com/rs/zerolog"
)

// logError writes err to diagnostics with its full cause chain attached.
func (e *Engine) logError(op smerrors.Op, err error, msg string) {
	ev := e.diag.Error().Str("op", string(op))
	withErrorChain(ev, err).Msg(msg)
}

// withErrorChain adds err plus error_chain/error_root/error_history/error_ops
// fields to ev.
func withErrorChain(ev *zerolog.Event, err error) *zerolog.Event {
	ev = ev.Err(err)
	if err == nil {
		return ev
	}
	chain, ops, root, rootOp := buildErrorChain(err)
	if len(chain) == 0 {
		return ev
	}
	ev = ev.Strs("error_chain", chain).
		Str("error_root", root).
		Str("error_history", strings.Join(chain, " -> ")).
		Strs("error_ops", ops)
	if rootOp != "" {
		ev = ev.Str("error_root_op", rootOp)
	}
	return ev
}

// buildErrorChain walks err outermost -> innermost, preferring
// DetailedError.Cause() and falling back to errors.Unwrap. Depth is capped
// and repeated messages stop the walk.
func buildErrorChain(err error) (chain []string, ops []string, root string, rootOp string) {
	const maxDepth = 50
	seen := map[string]bool{}

	for depth := 0; err != nil && depth < maxDepth; depth++ {
		if dErr, ok := smerrors.AsDetailedError(err); ok && dErr != nil {
			chain = append(chain, dErr.Error())
			ops = append(ops, string(dErr.Op()))
			err = dErr.Cause()
			continue
		}

		msg := err.Error()
		if seen[msg] {
			break
		}
		seen[msg] = true
		chain = append(chain, msg)
		ops = append(ops, "")
		err = stderrs.Unwrap(err)
	}

	if len(chain) > 0 {
		root = chain[len(chain)-1]
		rootOp = ops[len(ops)-1]
	}
	return
}
