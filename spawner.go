package watchspawn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Spawner starts work for a newly found file.
type Spawner interface {
	Spawn(ctx context.Context, file string) error
}

// ExecSpawner starts an external application with the file path as its only argument. Children are
// not waited for by Spawn; they are reaped in the background.
type ExecSpawner struct {
	// Application is the path of the executable to start.
	Application string

	// Stdout and Stderr receive the child's output. They default to the process' own streams.
	Stdout io.Writer
	Stderr io.Writer

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	children sync.WaitGroup
}

// NewExecSpawner creates a spawner for application that shares this process' output streams.
func NewExecSpawner(application string, logger *zap.Logger) *ExecSpawner {
	return &ExecSpawner{
		Application: application,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Logger:      logger,
	}
}

// Spawn starts the application for file. The path is passed as a single argument, so spaces survive
// without extra quoting on every platform.
func (s *ExecSpawner) Spawn(ctx context.Context, file string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Application == "" {
		return ErrInvalidApplication
	}

	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(
		zap.String("invocation", uuid.New().String()),
		zap.String("application", s.Application),
		zap.String("file", file),
	)

	// The child outlives the event that started it, so it is not bound to ctx
	cmd := exec.Command(s.Application, file)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting application %q: %w", s.Application, err)
	}
	logger.Debug("application started", zap.Int("pid", cmd.Process.Pid))

	s.children.Add(1)
	go func() {
		defer s.children.Done()
		err := cmd.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			logger.Debug("application exited")
		case errors.As(err, &exitErr):
			logger.Warn("application exited with non-zero status", zap.Int("exitCode", exitErr.ExitCode()))
		default:
			logger.Warn("error waiting for application", zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every child started so far has exited.
func (s *ExecSpawner) Wait() {
	s.children.Wait()
}
