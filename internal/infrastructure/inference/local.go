package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// LocalGateway runs the model as a child process: the image goes to stdin
// and the JSON answer is read from stdout.
type LocalGateway struct {
	command string
	args    []string
	timeout time.Duration
}

func NewLocalGateway(command string, args []string, timeout time.Duration) *LocalGateway {
	return &LocalGateway{command: command, args: args, timeout: timeout}
}

func (g *LocalGateway) Classify(ctx context.Context, image []byte, filename, contentType string) (*Result, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, g.command, g.args...)
	cmd.Stdin = bytes.NewReader(image)
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(),
		"SCAN_FILENAME="+filename,
		"SCAN_CONTENT_TYPE="+contentType,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, newError(KindTimeout, "model process did not finish in time", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, newError(KindServiceUnavailable,
				fmt.Sprintf("model process exited with %d: %s", exitErr.ExitCode(), tail(stderr.String(), 512)), err)
		}
		return nil, newError(KindServiceUnavailable, "failed to start model process", err)
	}

	return decodeResponse(stdout.Bytes())
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
