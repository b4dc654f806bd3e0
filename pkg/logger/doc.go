// Package logger provides structured logging for udacimak.
//
// It wraps zerolog behind the Logger interface so components can take a
// logger as a dependency and tests can swap in NewTestLogger or NewNopLogger.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("component", "walker")
//	log.InfoWithFields("lesson rendered", map[string]interface{}{
//	    "lesson": "Lesson 1",
//	    "atoms":  12,
//	})
//
// Without a log file the output is a coloured console writer on stderr, so
// it does not interleave with the progress line printed on stdout.
package logger
