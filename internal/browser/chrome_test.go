package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"
)

// scriptedPage only gets its label after the page's script runs, the way
// the translation page renders it.
const scriptedPage = `<html><body>
	<div id="c1"></div>
	<script>
		setTimeout(function () {
			var span = document.createElement("span");
			span.textContent = "ENGLISH - DETECTED";
			document.getElementById("c1").appendChild(span);
		}, 200);
	</script>
</body></html>`

// chromePath returns a Chrome or Chromium executable, or skips the test.
func chromePath(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("skipping browser test: Chrome binary not found (install chromium to run browser tests)")
	return ""
}

func newScriptedServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/scripted", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, scriptedPage)
	})
	mux.HandleFunc("/ua", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><span id="ua">%s</span></body></html>`, r.UserAgent())
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>nothing here</p></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestChromeNavigate tests reading script-rendered labels. The subtests
// share one browser and run in order.
func TestChromeNavigate(t *testing.T) {
	t.Parallel()

	execPath := chromePath(t)
	srv := newScriptedServer(t)

	c := NewChrome(
		WithExecPath(execPath),
		WithChromeImplicitWait(10*time.Second),
		WithChromeUserAgent("couponscout-test"),
	)
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	t.Run("text before navigation returns ErrNoPage", func(t *testing.T) {
		if _, err := c.Text("span"); !errors.Is(err, ErrNoPage) {
			t.Errorf("expected ErrNoPage, got %v", err)
		}
	})

	t.Run("sends user agent", func(t *testing.T) {
		if err := c.Navigate(context.Background(), srv.URL+"/ua"); err != nil {
			t.Fatalf("navigate: %v", err)
		}
		if got, err := c.Text("#ua"); err != nil || got != "couponscout-test" {
			t.Errorf("expected user agent to be sent, got %q, %v", got, err)
		}
	})

	t.Run("missing element returns ErrElementNotFound", func(t *testing.T) {
		if err := c.Navigate(context.Background(), srv.URL+"/empty"); err != nil {
			t.Fatalf("navigate: %v", err)
		}
		if _, err := c.Text("#c1 > span"); !errors.Is(err, ErrElementNotFound) {
			t.Errorf("expected ErrElementNotFound, got %v", err)
		}
	})
}

// TestChromeWaitSelector tests waiting for a label inserted by script.
func TestChromeWaitSelector(t *testing.T) {
	t.Parallel()

	execPath := chromePath(t)
	srv := newScriptedServer(t)

	c := NewChrome(
		WithExecPath(execPath),
		WithChromeImplicitWait(10*time.Second),
		WithWaitSelector("#c1 > span"),
	)
	defer c.Close()

	if err := c.Navigate(context.Background(), srv.URL+"/scripted"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	got, err := c.Text("#c1 > span")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if got != "ENGLISH - DETECTED" {
		t.Errorf("expected script-rendered label, got %q", got)
	}
}

// TestChromeImplicitWait tests that a label that never renders fails the
// navigation within the implicit wait.
func TestChromeImplicitWait(t *testing.T) {
	t.Parallel()

	execPath := chromePath(t)
	srv := newScriptedServer(t)

	c := NewChrome(
		WithExecPath(execPath),
		WithChromeImplicitWait(time.Second),
		WithWaitSelector("#c1 > span"),
	)
	defer c.Close()
	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	start := time.Now()
	if err := c.Navigate(context.Background(), srv.URL+"/empty"); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("navigation took %v, expected it to stop near the implicit wait", elapsed)
	}
	if _, err := c.Text("#c1 > span"); !errors.Is(err, ErrNoPage) {
		t.Errorf("expected ErrNoPage after failed navigation, got %v", err)
	}

	// The browser survives a timed-out navigation.
	if err := c.Navigate(context.Background(), srv.URL+"/scripted"); err != nil {
		t.Fatalf("navigate after timeout: %v", err)
	}
}

// TestChromeClose tests browser release.
func TestChromeClose(t *testing.T) {
	t.Parallel()

	c := NewChrome()
	if err := c.Close(); err != nil {
		t.Fatalf("close before start: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if err := c.Navigate(context.Background(), "http://127.0.0.1:1/"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := c.Text("span"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
