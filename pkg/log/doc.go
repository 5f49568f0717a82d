// Package log is the leveled, component-scoped logger used across
// estatedesk. It wraps the standard library *log.Logger and adds:
//
//   - Named loggers via ForService(name), memoized per name
//   - A "[name]" prefix on every line, after the level
//   - Infof, Warnf, Errorf and Debugf helpers
//   - Debug output enabled globally (SetGlobalDebug) or per component
//     (EnableDebugFor, EnableDebugForList)
//   - Child loggers carrying key=value fields via With
//   - A shared output writer (SetOutput) that also updates existing loggers
//
// Usage
//
//	l := log.ForService("search")
//	l.Infof("fan-out for %q", q)
//	l.With("entity", "agents").Warnf("fetch failed: %v", err)
//
// Output format
//
//	2024/05/01 10:00:00.000000 WARN [search] fetch failed: timeout entity=agents
//
// The package name collides with the standard library "log". Alias one of
// them when both are needed.
package log
