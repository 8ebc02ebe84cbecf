/*
Package log provides structured logging for findex using zerolog.

It wraps zerolog with a single package-level Logger, a small Config for
level/format/output selection, and a handful of context-logger helpers
(WithComponent, WithPath, WithTerm, WithDocID). Within this repository
only the findex and findexd commands import it.

Initialize once at process start:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})
	log.Info("index opened")

	idxLog := log.WithComponent("index").With().Str("path", dbPath).Logger()
	idxLog.Info().Msg("write transaction committed")
*/
package log
