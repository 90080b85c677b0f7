// Package engine is the default rule engine behind catlog.
//
// It parses a zlog-style rule text, binds category names to the rules that
// match them, renders records through format patterns and writes them to
// stdout, stderr, files (rotated through lumberjack) or user record
// functions. A rule set is immutable once built; Reload builds a complete
// replacement and swaps it in under the write lock so concurrent loggers
// see either the old set or the new one, never a mix.
//
// Rule text
//
//	[global]
//	strict init = true
//	default format = "%d(%F %T).%ms %-6V (%c:%f:%L) %m%n"
//
//	[levels]
//	TRACE = 10
//
//	[formats]
//	simple = "%m%n"
//
//	[rules]
//	my_cat.DEBUG     >stdout; simple
//	my_cat.=ERROR    "/var/log/app/err.log", 10MB * 3
//	*.*              $capture, "param"; json
//
// Engine diagnostics (parse failures, write errors, profile dumps) go to the
// zerolog logger passed in Options and never reach the caller.
package engine
