package transport

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"soundcheck/internal/logging"
)

// WorkerSocketEnv names the environment variable an isolated worker process
// finds its host socket under. Its presence is the probe that selects the
// socket binding over the in-process pipe.
const WorkerSocketEnv = "SOUNDCHECK_WORKER_SOCKET"

// Detect probes the host environment and returns the conduit for an isolated
// worker, or (nil, false) when the process should host its workers in-process
// over pipes.
func Detect(logger *slog.Logger) (Conduit, bool, error) {
	logger = logging.NewComponentLogger(logger, "transport")

	path := strings.TrimSpace(os.Getenv(WorkerSocketEnv))
	if path == "" {
		logger.Debug("no worker socket in environment; using in-process binding")
		return nil, false, nil
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, false, fmt.Errorf("dial worker socket %s: %w", path, err)
	}
	logger.Debug("attached to worker socket", logging.String("socket", path))
	return NewSocketConduit(conn), true, nil
}
