package e2e

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"simpleseq/internal/api"
	"simpleseq/internal/engine"
)

type systemUnderTest struct {
	BaseURL  string
	shutdown func()
	restart  func(t *testing.T)
}

func (s *systemUnderTest) Close() {
	if s.shutdown != nil {
		s.shutdown()
	}
}

// startSystemUnderTest runs the server in process unless SEQ_SERVER_CMD or
// SEQ_SERVER_URL point the suite at a real binary.
func startSystemUnderTest(t *testing.T) *systemUnderTest {
	t.Helper()

	if cmd := os.Getenv("SEQ_SERVER_CMD"); cmd != "" {
		sut, err := startExternalServer(t, cmd)
		if err != nil {
			t.Fatalf("start external server: %v", err)
		}
		return sut
	}

	if url := os.Getenv("SEQ_SERVER_URL"); url != "" {
		t.Logf("SEQ_SERVER_URL set; using existing server at %s", url)
		return &systemUnderTest{BaseURL: url}
	}

	sut, err := startInProcessServer(t)
	if err != nil {
		t.Fatalf("start in-process server: %v", err)
	}
	return sut
}

// startInProcessServer serves the API from a store whose commit log lives in
// a test temp dir. Restart closes the store and replays the same log.
func startInProcessServer(t *testing.T) (*systemUnderTest, error) {
	t.Helper()

	cfg := engine.CommitLogCfg{
		Path:                  filepath.Join(t.TempDir(), "commit.log"),
		FlushIntervalInSecond: 50 * time.Millisecond,
	}
	addr, err := freeAddr()
	if err != nil {
		return nil, fmt.Errorf("pick free addr: %w", err)
	}

	launch := func() (*httptest.Server, *engine.Store, error) {
		store, err := engine.OpenStore(context.Background(), cfg, zerolog.Nop())
		if err != nil {
			return nil, nil, err
		}
		l, err := net.Listen("tcp", addr)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		srv := httptest.NewUnstartedServer(api.NewServer(store, zerolog.Nop()))
		srv.Listener = l
		srv.Start()
		return srv, store, nil
	}

	srv, store, err := launch()
	if err != nil {
		return nil, err
	}
	stop := func() {
		srv.Close()
		store.Close()
	}

	return &systemUnderTest{
		BaseURL:  srv.URL,
		shutdown: func() { stop() },
		restart: func(t *testing.T) {
			t.Helper()
			stop()
			if srv, store, err = launch(); err != nil {
				t.Fatalf("restart server: %v", err)
			}
		},
	}, nil
}

func startExternalServer(t *testing.T, cmdStr string) (*systemUnderTest, error) {
	t.Helper()

	dataDir, err := os.MkdirTemp("", "simpleseq-e2e-data-*")
	if err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	addr, err := freeAddr()
	if err != nil {
		return nil, fmt.Errorf("pick free addr: %w", err)
	}

	launcher := func() (*exec.Cmd, string, error) {
		cmd := exec.Command("/bin/sh", "-c", "exec "+cmdStr)
		cmd.Env = append(os.Environ(),
			fmt.Sprintf("SEQ_HTTP_ADDR=%s", addr),
			fmt.Sprintf("SEQ_DATA_DIR=%s", dataDir),
		)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return nil, "", fmt.Errorf("cmd start: %w", err)
		}
		baseURL := "http://" + addr
		if err := waitForReady(baseURL, 10*time.Second); err != nil {
			_ = cmd.Process.Kill()
			return nil, "", fmt.Errorf("wait for ready: %w", err)
		}
		return cmd, baseURL, nil
	}

	cmd, baseURL, err := launcher()
	if err != nil {
		return nil, err
	}

	// SIGTERM lets the server flush its commit log before exiting.
	stop := func() {
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_, _ = cmd.Process.Wait()
		}
	}

	restart := func(t *testing.T) {
		t.Helper()
		stop()
		newCmd, _, err := launcher()
		if err != nil {
			t.Fatalf("restart server: %v", err)
		}
		cmd = newCmd
	}

	shutdown := func() {
		stop()
		_ = os.RemoveAll(dataDir)
	}

	return &systemUnderTest{
		BaseURL:  baseURL,
		shutdown: shutdown,
		restart:  restart,
	}, nil
}

func waitForReady(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not ready after %s", baseURL, timeout)
}

func freeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return l.Addr().String(), nil
}
