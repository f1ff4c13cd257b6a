package obs

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the service-wide logger. Development gets a colorized
// console writer; production emits plain JSON lines for log shipping.
func NewLogger(environment string) zerolog.Logger {
	var logger zerolog.Logger
	if environment == "production" {
		logger = zerolog.New(os.Stdout)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		logger = zerolog.New(output)
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return logger.With().
		Timestamp().
		Str("service", "socialloom-api").
		Logger()
}
