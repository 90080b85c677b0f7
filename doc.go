// Package catlog is a category/level logging facade over a reloadable rule
// engine.
//
// Key features
//   - Categories resolved by name; handles survive reloads and become inert
//     after Finalize instead of dangling
//   - Level gating before any formatting work (LevelEnabled, Logf helpers)
//   - Atomic rule reloads that never stop concurrent logging; a failed reload
//     changes nothing
//   - A default category for callers that do not want to hold a handle
//   - MDC key/value annotations carried on context.Context and rendered with
//     %M(key)
//   - Engine diagnostics through zerolog, optionally to a lumberjack file
//
// Errors are returned, never panicked: lifecycle and lookup failures are the
// sentinel values in this package, matched with errors.Is.
//
// Typical usage
//
//	svc, err := catlog.NewService(catlog.DefaultConfig())
//	if err != nil { return err }
//	if err := svc.InitFromString(`net.INFO >stdout`); err != nil { return err }
//	defer svc.Finalize()
//
//	cat, ok := svc.GetCategory("net")
//	ctx := catlog.WithMDC(context.Background())
//	_ = svc.MDCPut(ctx, "peer", addr)
//	cat.Infof(ctx, "connected in %s", d)
//
// The package-level functions drive a process-wide Service returned by
// Default.
package catlog
