package vm

import (
	"log/slog"
	"os"
)

// defaultLogger is used by CPUs constructed without an explicit logger
// (NewCPU always installs this unless overridden via WithLogger).
var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// Option configures a CPU at construction time.
type Option func(*CPU)

// WithLogger overrides the CPU's structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *CPU) { c.log = l }
}
