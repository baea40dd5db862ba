//go:build !ci

package export

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	dockerImage           = "chromedp/headless-shell:stable"
	chromeContainerPrefix = "chrome-e2e-stepdoc-"
)

// setupDockerChrome starts a headless Chrome container and returns a chromedp
// context bounded by timeout. The test is skipped when Docker is unavailable.
func setupDockerChrome(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()

	port, err := freePort()
	if err != nil {
		t.Fatalf("Failed to allocate Chrome port: %v", err)
	}
	if err := startDockerChrome(t, port); err != nil {
		t.Fatalf("Failed to start Docker Chrome: %v", err)
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), fmt.Sprintf("http://localhost:%d", port))
	ctx, ctxCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(t.Logf))
	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)

	t.Cleanup(func() {
		timeoutCancel()
		ctxCancel()
		allocCancel()
		stopDockerChrome(t, port)
	})
	return ctx
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func startDockerChrome(t *testing.T, port int) error {
	t.Helper()

	if _, err := exec.Command("docker", "version").CombinedOutput(); err != nil {
		t.Skip("Docker not available, skipping E2E test")
	}

	name := fmt.Sprintf("%s%d", chromeContainerPrefix, port)
	_, _ = exec.Command("docker", "rm", "-f", name).CombinedOutput()

	if _, err := exec.Command("docker", "image", "inspect", dockerImage).CombinedOutput(); err != nil {
		t.Log("Pulling chromedp/headless-shell Docker image...")
		pullCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if output, err := exec.CommandContext(pullCtx, "docker", "pull", dockerImage).CombinedOutput(); err != nil {
			t.Skipf("Docker image unavailable: %v\n%s", err, output)
		}
	}

	args := []string{"run", "-d", "--rm", "--memory", "512m", "--cpus", "0.5", "--name", name}
	if runtime.GOOS == "linux" {
		args = append(args, "--network", "host", dockerImage, fmt.Sprintf("--remote-debugging-port=%d", port))
	} else {
		// Docker Desktop runs in a VM, so map onto the image's default port.
		args = append(args, "-p", fmt.Sprintf("%d:9222", port), dockerImage)
	}
	if _, err := exec.Command("docker", args...).Output(); err != nil {
		return fmt.Errorf("start Chrome container: %w", err)
	}

	client := &http.Client{Timeout: 2 * time.Second}
	versionURL := fmt.Sprintf("http://localhost:%d/json/version", port)
	var lastErr error
	for i := 0; i < 120; i++ {
		resp, err := client.Get(versionURL)
		if err == nil {
			resp.Body.Close()
			return nil
		}
		lastErr = err
		time.Sleep(500 * time.Millisecond)
	}

	if output, err := exec.Command("docker", "logs", "--tail", "50", name).CombinedOutput(); err == nil {
		t.Logf("Chrome container logs:\n%s", output)
	}
	_, _ = exec.Command("docker", "rm", "-f", name).CombinedOutput()
	return fmt.Errorf("Chrome not ready after 60s: %w", lastErr)
}

func stopDockerChrome(t *testing.T, port int) {
	t.Helper()
	name := fmt.Sprintf("%s%d", chromeContainerPrefix, port)
	if output, err := exec.Command("docker", "rm", "-f", name).CombinedOutput(); err != nil {
		if !strings.Contains(string(output), "No such container") {
			t.Logf("Warning: failed to remove Chrome container: %v (%s)", err, output)
		}
	}
}
