package observability

import (
	"time"

	"github.com/rs/zerolog"
)

// Stage logs and records one dump file pass. Call the returned func with
// the pass result.
func Stage(logger zerolog.Logger, kind, path string) func(records int, err error) {
	start := time.Now()
	return func(records int, err error) {
		elapsed := time.Since(start)
		RecordFile(kind, elapsed, err == nil)

		event := logger.Info()
		if err != nil {
			event = logger.Error().Err(err)
		}
		event.
			Str("kind", kind).
			Str("path", path).
			Int("records", records).
			Dur("duration", elapsed).
			Msg("memlog_file")
	}
}
