package navigation

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// Navigator performs a hard navigation to a web route such as "/dashboard/driver"
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// Recorder remembers every navigation without leaving the process
type Recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *Recorder) Navigate(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

// Paths returns the navigations made so far
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// Last returns the most recent navigation, or "" when none happened
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return ""
	}
	return r.paths[len(r.paths)-1]
}

// Browser resolves routes against the web app URL and opens them.
// With OpenBrowser unset it only prints the URL to Out.
type Browser struct {
	WebURL      string
	OpenBrowser bool
	Out         io.Writer

	// open is swapped in tests
	open func(url string) error
}

// NewBrowser creates a navigator for the web app at webURL
func NewBrowser(webURL string, openBrowser bool, out io.Writer) *Browser {
	return &Browser{WebURL: webURL, OpenBrowser: openBrowser, Out: out, open: openURL}
}

func (b *Browser) Navigate(_ context.Context, path string) error {
	target, err := Resolve(b.WebURL, path)
	if err != nil {
		return err
	}

	if b.Out != nil {
		fmt.Fprintf(b.Out, "→ %s\n", target)
	}
	if !b.OpenBrowser {
		return nil
	}

	open := b.open
	if open == nil {
		open = openURL
	}
	if err := open(target); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, target)
	}
	return nil
}

// Resolve joins a route onto the web app base URL
func Resolve(webURL, path string) (string, error) {
	if webURL == "" {
		return path, nil
	}
	base, err := url.Parse(strings.TrimRight(webURL, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("invalid web URL: %w", err)
	}
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid route %q: %w", path, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// openURL opens the URL in the default browser
func openURL(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
