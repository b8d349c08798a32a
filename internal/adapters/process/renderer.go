package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/3-lines-studio/lander/internal/core"
)

const maxResponseBytes = 32 << 20

// Renderer is a client for the server-side render service. The service is
// reached over HTTP, a unix socket, or a child process that listens on one.
type Renderer struct {
	cmd      *exec.Cmd
	endpoint string
	client   *http.Client
	cleanup  func()
}

// NewRenderer connects to a running render service. serviceURL is an
// http(s) base URL or unix:///path/to.sock.
func NewRenderer(serviceURL string) (*Renderer, error) {
	if serviceURL == "" {
		return nil, fmt.Errorf("missing render service url")
	}

	if socket, ok := strings.CutPrefix(serviceURL, "unix://"); ok {
		return &Renderer{
			endpoint: "http://localhost",
			client:   &http.Client{Transport: unixTransport(socket)},
		}, nil
	}

	if !strings.HasPrefix(serviceURL, "http://") && !strings.HasPrefix(serviceURL, "https://") {
		return nil, fmt.Errorf("unsupported render service url: %s", serviceURL)
	}

	return &Renderer{
		endpoint: strings.TrimRight(serviceURL, "/"),
		client:   &http.Client{},
	}, nil
}

// NewRendererFromCommand starts the render service as a child process. The
// process receives the socket path in LANDER_SOCKET.
func NewRendererFromCommand(command []string, cleanup func()) (*Renderer, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("missing render command")
	}

	socket := filepath.Join(os.TempDir(), fmt.Sprintf("lander-render-%d.sock", os.Getpid()))

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Env = append(os.Environ(), "LANDER_SOCKET="+socket)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start render service: %w", err)
	}

	if err := waitForSocket(socket, 5*time.Second); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	return &Renderer{
		cmd:      cmd,
		endpoint: "http://localhost",
		client:   &http.Client{Transport: unixTransport(socket)},
		cleanup: func() {
			_ = os.Remove(socket)
			if cleanup != nil {
				cleanup()
			}
		},
	}, nil
}

func unixTransport(socket string) *http.Transport {
	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socket)
		},
	}
}

func (r *Renderer) Stop() error {
	var err error
	if r.cmd != nil && r.cmd.Process != nil {
		err = r.cmd.Process.Kill()
	}
	if r.cleanup != nil {
		r.cleanup()
	}
	return err
}

func (r *Renderer) Render(ctx context.Context, project *core.ProjectDocument, hints core.UIHints) (core.RenderedPage, error) {
	reqBody := map[string]any{
		"project": project,
		"uiHints": hints,
	}

	var result struct {
		HTML  string `json:"html"`
		CSS   string `json:"css"`
		Error *struct {
			Message string `json:"message"`
			Stack   string `json:"stack"`
			Errors  []struct {
				Message string `json:"message"`
			} `json:"errors"`
		} `json:"error"`
	}

	if err := r.postJSON(ctx, "/render", reqBody, &result); err != nil {
		return core.RenderedPage{}, err
	}

	if result.Error != nil {
		var sb strings.Builder
		sb.WriteString(result.Error.Message)

		if len(result.Error.Errors) > 0 {
			sb.WriteString("\n\nErrors:")
			for i, err := range result.Error.Errors {
				fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Message)
			}
		}

		if result.Error.Stack != "" {
			fmt.Fprintf(&sb, "\n\nStack:\n%s", result.Error.Stack)
		}

		return core.RenderedPage{}, fmt.Errorf("render service: %s", sb.String())
	}

	if strings.TrimSpace(result.HTML) == "" {
		return core.RenderedPage{}, fmt.Errorf("render service returned no html")
	}

	return core.RenderedPage{
		HTML: result.HTML,
		CSS:  result.CSS,
	}, nil
}

func (r *Renderer) postJSON(ctx context.Context, endpoint string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("render service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(result)
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for render socket at %s", path)
}
