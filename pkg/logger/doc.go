// Package logger provides the structured logging interface used across rdtagger.
//
// It wraps zerolog with a small Logger interface so that components can be
// handed a logger at construction time and tests can substitute a
// capturing TestLogger or a no-op logger.
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Collection started", map[string]interface{}{
//	    "collection_id": 123,
//	})
//
// Console output is coloured and goes to stderr. When Logging.File is set,
// JSON lines are additionally appended to that file.
package logger
