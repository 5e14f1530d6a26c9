package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/driftline/agentcore/internal/util"
	"github.com/driftline/agentcore/logging"
	"github.com/driftline/agentcore/trace"
)

// TransportError reports a non-2xx response from a tool endpoint. The response
// body text is carried so callers can diagnose the remote failure.
type TransportError struct {
	ToolName   string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("tool %q transport error: status %d: %s", e.ToolName, e.StatusCode, e.Body)
}

// invocationBody is the wire shape of an MCP tool call.
type invocationBody struct {
	SessionID string         `json:"sessionId"`
	ToolName  string         `json:"toolName"`
	Arguments map[string]any `json:"arguments"`
}

// Tool is a registered remote-callable tool: a name, a description, an input
// schema and an execute closure over a per-tool HTTP target. Tools are built
// from validated ToolDefinition records by the Registry and have no internal
// mutable state after construction.
type Tool struct {
	name        string
	description string
	schema      map[string]any
	endpoint    string
	headers     map[string]string

	sessionID string
	client    *http.Client
	recorder  *trace.Recorder
	logger    logging.Logger
}

// Name returns the collision-free registered name used in function call
// declarations and routing.
func (t *Tool) Name() string { return t.name }

// Description returns the natural language description exposed to models.
func (t *Tool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *Tool) Parameters() map[string]any { return t.schema }

// Endpoint returns the remote invocation URL.
func (t *Tool) Endpoint() string { return t.endpoint }

// Execute validates args against the declared schema then issues the remote
// call. A tool-input event is emitted immediately before the call and either a
// tool-output or tool-error event immediately after, so the outcome is always
// observable; a failure is still returned to the caller after the error event
// is recorded.
func (t *Tool) Execute(ctx context.Context, toolCallID string, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}

	if err := util.ValidateParameters(args, t.schema); err != nil {
		t.logger.Warn("mcp.tool.validation_failed", "tool", t.name, "error", err.Error())
		return nil, fmt.Errorf("tool %q argument validation failed: %w", t.name, err)
	}

	t.recorder.ToolInput(toolCallID, t.name, args)

	start := time.Now()
	result, err := t.invoke(ctx, args)
	if err != nil {
		t.logger.Error("mcp.tool.call_failed",
			"tool", t.name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)
		t.recorder.ToolError(toolCallID, t.name, err)
		return nil, err
	}

	t.logger.Info("mcp.tool.call_success",
		"tool", t.name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	t.recorder.ToolOutput(toolCallID, t.name, result)
	return result, nil
}

// invoke performs the HTTP exchange of the MCP invocation contract.
func (t *Tool) invoke(ctx context.Context, args map[string]any) (any, error) {
	payload, err := json.Marshal(invocationBody{
		SessionID: t.sessionID,
		ToolName:  t.name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("tool %q: marshal arguments: %w", t.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tool %q: build request: %w", t.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-MCP-Session", t.sessionID)
	req.Header.Set("X-MCP-Tool", t.name)
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tool %q: request failed: %w", t.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tool %q: read response: %w", t.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{ToolName: t.name, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if isJSONContentType(resp.Header.Get("Content-Type")) {
		var result any
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("tool %q: parse JSON response: %w", t.name, err)
		}
		return result, nil
	}
	return string(body), nil
}

// isJSONContentType reports whether a Content-Type header denotes JSON.
func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.ToLower(contentType))
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// sanitizeHeaders drops entries with a blank key or value.
func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	return out
}
