// Package trace records structured events about what the resolver is doing.
//
// Events are grouped by scope: the driver span wraps a whole batch, pass
// spans wrap binding and resolution, script spans wrap one script and step
// points mark freeze/infer/collect/finalize. The level decides which scopes
// are emitted:
//
//	off    nothing
//	error  nothing (reserved for crash dumps)
//	phase  driver and pass spans
//	detail plus script spans
//	debug  everything
//
// A Tracer travels in a context.Context (WithTracer / FromContext). When no
// tracer is attached the Nop tracer is used and Begin returns a span whose
// End is free.
package trace
