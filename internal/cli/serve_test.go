package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/mermaidviz/internal/config"
	"github.com/aretw0/mermaidviz/internal/logging"
	"github.com/aretw0/mermaidviz/internal/testutils"
	"github.com/aretw0/mermaidviz/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServe(t *testing.T, cfg config.Config) (string, context.CancelFunc, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeOptions{Config: cfg, Logger: logging.NewNop(), Listener: ln})
	}()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	return base, cancel, done
}

func TestServe_GracefulShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.APIKey = "k"

	base, cancel, done := startServe(t, cfg)

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		require.Fail(t, "server did not stop")
	}
}

func TestServe_WatchStreamsFile(t *testing.T) {
	path := testutils.SetupDiagramFile(t, "diagram.mmd", "graph TD\n  A --> B\n")

	cfg := config.Default()
	cfg.APIKey = "k"
	cfg.WatchFile = path

	base, cancel, done := startServe(t, cfg)
	defer func() {
		cancel()
		<-done
	}()

	ctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	next := func() domain.ConvertResponse {
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: {") {
				continue
			}
			var v domain.ConvertResponse
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &v))
			return v
		}
		return domain.ConvertResponse{}
	}

	assert.Equal(t, "graph TD\n  A --> B\n", next().Mermaid)

	require.NoError(t, os.WriteFile(path, []byte("sequenceDiagram\n"), 0o644))
	assert.Equal(t, "sequenceDiagram\n", next().Mermaid)
}
