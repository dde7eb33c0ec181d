// Package log provides taxiway's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. It is backed by the standard library's
// slog through a bridge handler that routes records into our own
// formatter/output pipeline, so every component prints the same shape of line
// regardless of whether it logs through the facade or through slog.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("tcp"))
//	l.Info("listening", log.Str("addr", "127.0.0.1:8294"))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level, text or json
// format, output target).
//
// # Interop
//
// Libraries that expect a *log.Logger from the standard library can be pointed
// at a facade logger with ToStdLogger or RedirectStdLog.
package log
