// Package codec implements arris.MetadataCodec on top of external metadata
// tools.
package codec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner executes an external tool. A non-nil error means the tool could not
// be started or exited with a non-zero status; its output is returned either
// way.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs tools as child processes.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// CheckTools verifies that every named tool can be found in PATH.
func CheckTools(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not found in PATH: %v", missing)
	}
	return nil
}

var _ Runner = ExecRunner{}
