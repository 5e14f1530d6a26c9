package mcp

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/driftline/agentcore/logging"
	"github.com/driftline/agentcore/trace"
)

var (
	disallowedNameChars = regexp.MustCompile(`[^a-z0-9_-]+`)
	repeatedUnderscores = regexp.MustCompile(`_+`)
)

// RegistryOptions configures construction of a Registry.
type RegistryOptions struct {
	HTTPClient *http.Client
	Recorder   *trace.Recorder
	Logger     logging.Logger
}

// Registry holds the remote-callable tools of one run. It is built once per
// run from the supplied definitions and not mutated afterwards.
type Registry struct {
	tools  []*Tool
	byName map[string]*Tool
}

// NewRegistry converts tool definitions into registered tools. Definitions
// with duplicate ids are skipped (first wins, with a warning); definitions
// without a usable endpoint are skipped entirely. Name collisions after
// sanitization are resolved by suffixing _2, _3, ... in registration order.
func NewRegistry(sessionID string, defs []ToolDefinition, optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Recorder == nil {
		opts.Recorder = trace.NewRecorder(sessionID)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	r := &Registry{byName: map[string]*Tool{}}
	seenIDs := map[string]bool{}

	for i, def := range defs {
		if seenIDs[def.ID] && def.ID != "" {
			opts.Logger.Warn("mcp.registry.duplicate_id", "id", def.ID)
			continue
		}
		if def.ID != "" {
			seenIDs[def.ID] = true
		}

		if strings.TrimSpace(def.Endpoint) == "" {
			opts.Logger.Warn("mcp.registry.missing_endpoint", "id", def.ID)
			continue
		}

		name := r.uniqueName(resolveName(def, i))
		t := &Tool{
			name:        name,
			description: def.Description,
			schema:      buildArgumentSchema(def.Arguments),
			endpoint:    strings.TrimSpace(def.Endpoint),
			headers:     sanitizeHeaders(def.Headers),
			sessionID:   sessionID,
			client:      opts.HTTPClient,
			recorder:    opts.Recorder,
			logger:      opts.Logger,
		}
		r.tools = append(r.tools, t)
		r.byName[name] = t

		opts.Logger.Debug("mcp.registry.registered", "tool", name, "endpoint", t.endpoint)
	}

	return r
}

// resolveName derives the candidate registration name for a definition:
// metadata.toolName when present, else the definition id, sanitized to
// [a-z0-9_-]. An empty sanitized result falls back to a positional name.
func resolveName(def ToolDefinition, index int) string {
	candidate := def.ID
	if def.Metadata != nil && strings.TrimSpace(def.Metadata.ToolName) != "" {
		candidate = def.Metadata.ToolName
	}
	if name := sanitizeName(candidate); name != "" {
		return name
	}
	return fmt.Sprintf("mcp_tool_%d", index+1)
}

// sanitizeName lowercases, replaces disallowed characters with underscores,
// collapses underscore runs and trims leading/trailing underscores.
func sanitizeName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = disallowedNameChars.ReplaceAllString(name, "_")
	name = repeatedUnderscores.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

// uniqueName resolves collisions by suffixing _2, _3, ... in registration
// order; the first-registered tool keeps the bare name.
func (r *Registry) uniqueName(name string) string {
	if _, taken := r.byName[name]; !taken {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", name, n)
		if _, taken := r.byName[candidate]; !taken {
			return candidate
		}
	}
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []*Tool { return r.tools }

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Get retrieves a tool by its registered name.
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}
