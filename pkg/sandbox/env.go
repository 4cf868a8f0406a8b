package sandbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// Env is the set of capability facades handed to a plugin. A plugin is
// constructed with only the facades its granted capabilities expose and has
// no ambient path to denied operations: requesting an ungranted facade
// returns a PermissionDeniedError immediately.
type Env struct {
	policy Policy

	network       *NetworkAPI
	filesystem    *FilesystemAPI
	subprocess    *SubprocessAPI
	sudo          *SudoAPI
	clipboard     *ClipboardAPI
	notifications *NotificationsAPI
}

// NewEnv builds the capability environment for one policy. workDir scopes
// the filesystem facade; pass "" to scope it to the plugin's own directory
// at call time.
func NewEnv(policy Policy, workDir string) *Env {
	e := &Env{policy: policy}

	if policy.Has(CapabilityNetwork) {
		e.network = &NetworkAPI{client: &http.Client{Timeout: defaultHTTPTimeout}}
	}
	if policy.Has(CapabilityFilesystem) {
		e.filesystem = &FilesystemAPI{root: workDir}
	}
	if policy.Has(CapabilitySubprocess) {
		e.subprocess = &SubprocessAPI{}
	}
	if policy.Has(CapabilitySudo) {
		e.sudo = &SudoAPI{}
	}
	if policy.Has(CapabilityClipboard) {
		e.clipboard = &ClipboardAPI{}
	}
	if policy.Has(CapabilityNotifications) {
		e.notifications = &NotificationsAPI{}
	}

	return e
}

// Policy returns the policy this environment was built from.
func (e *Env) Policy() Policy {
	return e.policy
}

func (e *Env) denied(module string, c Capability) error {
	return &PermissionDeniedError{PluginID: e.policy.PluginID, Module: module, Capability: c}
}

// Network returns the network facade, or PermissionDeniedError.
func (e *Env) Network() (*NetworkAPI, error) {
	if e.network == nil {
		return nil, e.denied("network", CapabilityNetwork)
	}
	return e.network, nil
}

// Filesystem returns the filesystem facade, or PermissionDeniedError.
func (e *Env) Filesystem() (*FilesystemAPI, error) {
	if e.filesystem == nil {
		return nil, e.denied("filesystem", CapabilityFilesystem)
	}
	return e.filesystem, nil
}

// Subprocess returns the subprocess facade, or PermissionDeniedError.
func (e *Env) Subprocess() (*SubprocessAPI, error) {
	if e.subprocess == nil {
		return nil, e.denied("subprocess", CapabilitySubprocess)
	}
	return e.subprocess, nil
}

// Sudo returns the privileged-execution facade, or PermissionDeniedError.
func (e *Env) Sudo() (*SudoAPI, error) {
	if e.sudo == nil {
		return nil, e.denied("sudo", CapabilitySudo)
	}
	return e.sudo, nil
}

// Clipboard returns the clipboard facade, or PermissionDeniedError.
func (e *Env) Clipboard() (*ClipboardAPI, error) {
	if e.clipboard == nil {
		return nil, e.denied("clipboard", CapabilityClipboard)
	}
	return e.clipboard, nil
}

// Notifications returns the notifications facade, or PermissionDeniedError.
func (e *Env) Notifications() (*NotificationsAPI, error) {
	if e.notifications == nil {
		return nil, e.denied("notifications", CapabilityNotifications)
	}
	return e.notifications, nil
}

// NetworkAPI performs HTTP requests on behalf of a plugin.
type NetworkAPI struct {
	client *http.Client
}

// Get fetches a URL and returns the response body.
func (n *NetworkAPI) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status: %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// FilesystemAPI reads and writes files within the plugin's working
// directory. Paths escaping the root are rejected.
type FilesystemAPI struct {
	root string
}

func (f *FilesystemAPI) resolve(relPath string) (string, error) {
	clean := filepath.Clean(relPath)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("path escapes plugin directory: %s", relPath)
	}
	return filepath.Join(f.root, clean), nil
}

// ReadFile reads a file relative to the plugin directory.
func (f *FilesystemAPI) ReadFile(relPath string) ([]byte, error) {
	path, err := f.resolve(relPath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// WriteFile writes a file relative to the plugin directory.
func (f *FilesystemAPI) WriteFile(relPath string, data []byte) error {
	path, err := f.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SubprocessAPI spawns unprivileged processes.
type SubprocessAPI struct{}

// Run executes a command and returns its combined output.
func (s *SubprocessAPI) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// SudoAPI spawns privileged processes through pkexec.
type SudoAPI struct{}

// Run executes a command under pkexec and returns its combined output.
func (s *SudoAPI) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	full := append([]string{name}, args...)
	return exec.CommandContext(ctx, "pkexec", full...).CombinedOutput()
}

// ClipboardAPI copies text into the session clipboard using wl-copy on
// Wayland with an xclip fallback.
type ClipboardAPI struct{}

// Copy places text on the clipboard.
func (c *ClipboardAPI) Copy(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, "wl-copy", text)
	if err := cmd.Run(); err == nil {
		return nil
	}

	fallback := exec.CommandContext(ctx, "xclip", "-selection", "clipboard")
	fallback.Stdin = strings.NewReader(text)
	return fallback.Run()
}

// NotificationsAPI sends desktop notifications via notify-send.
type NotificationsAPI struct{}

// Notify shows a desktop notification.
func (n *NotificationsAPI) Notify(ctx context.Context, summary, body string) error {
	return exec.CommandContext(ctx, "notify-send", summary, body).Run()
}
