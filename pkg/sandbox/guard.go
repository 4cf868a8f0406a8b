package sandbox

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Module family prefixes checked by the guard. Loads of anything else are
// permitted unconditionally.
var (
	networkModules = []string{
		"net", "net/http", "net/smtp", "socket", "http", "urllib", "requests", "ftplib",
	}
	subprocessModules = []string{
		"os/exec", "subprocess", "exec", "popen2", "commands",
	}
)

// Guard maintains an explicit stack of active policies; only the innermost
// wrapped plugin is consulted for a given check. The guard itself does not
// serialize plugin loading; the load path holds one mutex around
// load-and-wrap so concurrent loads cannot cross-contaminate decisions.
type Guard struct {
	mu    sync.Mutex
	stack []Policy
	log   *logrus.Logger

	onDeny func(*PermissionDeniedError)
}

// NewGuard creates an empty Guard.
func NewGuard(log *logrus.Logger) *Guard {
	if log == nil {
		log = logrus.New()
	}
	return &Guard{log: log}
}

// SetDenyHook registers a callback invoked on every denial, for metrics.
func (g *Guard) SetDenyHook(hook func(*PermissionDeniedError)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onDeny = hook
}

// Wrap pushes a plugin's policy onto the enforcement stack. The caller must
// Unwrap once the plugin's load completes.
func (g *Guard) Wrap(pluginID string, requested []string) Policy {
	policy := NewPolicy(pluginID, requested)

	g.mu.Lock()
	g.stack = append(g.stack, policy)
	g.mu.Unlock()

	g.log.Debugf("Sandbox wrapped plugin %s with capabilities %v", pluginID, policy.Capabilities())
	return policy
}

// Unwrap pops the active policy. Calling Unwrap with no active policy is a
// no-op.
func (g *Guard) Unwrap() {
	g.mu.Lock()
	if len(g.stack) == 0 {
		g.mu.Unlock()
		return
	}
	popped := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	g.mu.Unlock()

	g.log.Debugf("Sandbox unwrapped plugin %s", popped.PluginID)
}

// Check decides whether the currently wrapped plugin may load the named
// module. Modules in the network family require the network capability,
// process-spawning modules require subprocess; everything else is always
// permitted. With no active policy all loads are permitted.
func (g *Guard) Check(module string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.stack) == 0 {
		return nil
	}
	policy := g.stack[len(g.stack)-1]

	required, restricted := classifyModule(module)
	if !restricted || policy.Has(required) {
		return nil
	}

	denied := &PermissionDeniedError{
		PluginID:   policy.PluginID,
		Module:     module,
		Capability: required,
	}
	if g.onDeny != nil {
		g.onDeny(denied)
	}
	g.log.Warnf("Sandbox denied module load: %v", denied)
	return denied
}

// Active returns the policy currently on top of the stack, if any.
func (g *Guard) Active() (Policy, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.stack) == 0 {
		return Policy{}, false
	}
	return g.stack[len(g.stack)-1], true
}

func classifyModule(module string) (Capability, bool) {
	if matchesFamily(module, networkModules) {
		return CapabilityNetwork, true
	}
	if matchesFamily(module, subprocessModules) {
		return CapabilitySubprocess, true
	}
	return "", false
}

func matchesFamily(module string, family []string) bool {
	for _, name := range family {
		if module == name || strings.HasPrefix(module, name+"/") || strings.HasPrefix(module, name+".") {
			return true
		}
	}
	return false
}
