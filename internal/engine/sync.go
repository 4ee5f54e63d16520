package engine

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// SyncOutcome records what happened with the external environment sync after
// a committed write. Sync failure never reopens the round: the manifest edit
// already succeeded and is reported as such alongside this outcome.
type SyncOutcome struct {
	Attempted bool  `json:"attempted"`
	Skipped   bool  `json:"skipped"`
	Err       error `json:"-"`
}

// SyncRunner signals the external environment-sync process for a persisted
// manifest. Only the process's exit status is observed; its output is not
// parsed.
type SyncRunner interface {
	Sync(ctx context.Context, manifestPath string) error
}

// ExecSyncRunner runs a configured sync command. The manifest path is
// exposed to the command via the QUORUM_MANIFEST environment variable.
type ExecSyncRunner struct {
	Command []string
}

// Compile-time interface check.
var _ SyncRunner = (*ExecSyncRunner)(nil)

// Sync executes the command and reports a non-zero exit as SyncError.
func (r *ExecSyncRunner) Sync(ctx context.Context, manifestPath string) error {
	if len(r.Command) == 0 {
		return errors.New("engine: sync runner has no command configured")
	}

	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Env = append(os.Environ(), "QUORUM_MANIFEST="+manifestPath)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &SyncError{
				Command:  strings.Join(r.Command, " "),
				ExitCode: exitErr.ExitCode(),
				Err:      err,
			}
		}
		return &SyncError{Command: strings.Join(r.Command, " "), ExitCode: -1, Err: err}
	}
	return nil
}
