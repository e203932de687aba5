package utils

import (
	"io"

	"github.com/MrSnakeDoc/giftgate/internal/logger"
)

// CloseLogged closes c and logs any error under the given component name.
// Nil closers are skipped so optional dependencies can be passed as is.
func CloseLogged(c io.Closer, name string, log logger.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("component", name), logger.Error(err))
		return
	}
	log.Debug("closed", logger.String("component", name))
}
