package store

import (
	"fmt"
	"log/slog"

	"github.com/xigt/sleipnir/internal/domain"
	"github.com/xigt/sleipnir/internal/port"
)

// Open constructs the configured backend. "filesystem" takes a database
// directory; "bolt" takes a database file.
func Open(backend, path string, logger *slog.Logger) (port.Database, error) {
	switch backend {
	case "", "filesystem":
		return NewFileSystem(path, logger)
	case "bolt":
		return NewBolt(path, logger)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", domain.ErrStorageUnavailable, backend)
	}
}
