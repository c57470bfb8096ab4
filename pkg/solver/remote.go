package solver

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
	"github.com/lightpath-network/nrm/pkg/util"
)

// RemoteOptions configures a Remote driver's SSH connection to the host
// running the solver binary, used for fanning solvec's per-device
// invocations out across a compute pool instead of the local CPU.
type RemoteOptions struct {
	Options
	Host        string // host:port
	User        string
	KeyPath     string // private key file, OpenSSH PEM
	RemoteTmp   string // working directory on the remote host
	DialTimeout time.Duration
}

// Remote is a Driver that renders data locally, copies it to the remote
// host over an SSH session, invokes glpsol there, and reads the
// resulting solution file back. bootstrap selects it when param.json's
// solver_host key is set and uses LocalDriver otherwise; Remote itself
// has no local fallback, and an empty Host fails at dial time.
type Remote struct {
	RemoteOptions
}

// NewRemote constructs a Remote driver, defaulting Binary to "glpsol"
// and DialTimeout to 10s when unset.
func NewRemote(opts RemoteOptions) *Remote {
	if opts.Binary == "" {
		opts.Binary = "glpsol"
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.RemoteTmp == "" {
		opts.RemoteTmp = "/tmp/nrm-solve"
	}
	return &Remote{RemoteOptions: opts}
}

func (r *Remote) dial() (*ssh.Client, error) {
	key, err := os.ReadFile(r.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read solver SSH key %s: %w", r.KeyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse solver SSH key %s: %w", r.KeyPath, err)
	}
	config := &ssh.ClientConfig{
		User:            r.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         r.DialTimeout,
	}
	return ssh.Dial("tcp", r.Host, config)
}

// Solve renders data locally, then runs glpsol on the remote host over
// one SSH session per invocation (opened per call; the solvec fan-out is
// bounded by the request's -p thread count, so session setup cost is
// acceptable).
func (r *Remote) Solve(ctx context.Context, modelFile string, data *ilp.DataFile, tmpDir, workID string) (*Solution, error) {
	log := util.WithWorkID(workID).WithField("host", r.Host)

	client, err := r.dial()
	if err != nil {
		return nil, &nrmerr.SolverError{WorkID: workID, Err: fmt.Errorf("dial %s: %w", r.Host, err)}
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, &nrmerr.SolverError{WorkID: workID, Err: fmt.Errorf("open session: %w", err)}
	}
	defer session.Close()

	remoteModel := fmt.Sprintf("%s/%s.model", r.RemoteTmp, workID)
	remoteData := fmt.Sprintf("%s/%s.data", r.RemoteTmp, workID)
	remoteSol := fmt.Sprintf("%s/%s.sol", r.RemoteTmp, workID)

	modelBytes, err := os.ReadFile(modelFile)
	if err != nil {
		return nil, &nrmerr.PersistenceError{Path: modelFile, Err: err}
	}

	cmd := fmt.Sprintf(
		"mkdir -p %s && cat > %s <<'NRMMODEL'\n%sNRMMODEL\ncat > %s <<'NRMDATA'\n%sNRMDATA\n%s --model %s --data %s -o %s && cat %s",
		r.RemoteTmp, remoteModel, string(modelBytes), remoteData, data.Render(), r.Binary, remoteModel, remoteData, remoteSol, remoteSol,
	)

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	var output []byte
	go func() {
		var runErr error
		output, runErr = session.CombinedOutput(fmt.Sprintf("sh -c %q", cmd))
		done <- runErr
	}()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		return nil, &nrmerr.SolverTimeoutError{WorkID: workID, Timeout: r.Timeout}
	case runErr := <-done:
		if runErr != nil {
			log.WithField("stderr", string(output)).Warn("remote solve failed")
			return nil, &nrmerr.SolverError{WorkID: workID, Stderr: string(output), Err: runErr}
		}
	}

	sol, err := ParseSolution(output)
	if err != nil {
		return nil, fmt.Errorf("workId %s: %w", workID, err)
	}

	switch sol.Status {
	case StatusInfeasible, StatusUnbounded:
		return sol, &nrmerr.NoFeasibleSolutionError{Reason: fmt.Sprintf("remote solver reported %s", sol.Status)}
	case StatusOptimal:
		return sol, nil
	default:
		return nil, &nrmerr.SolverError{WorkID: workID, Stderr: string(output), Err: fmt.Errorf("unrecognized solver status")}
	}
}
