// Package mcp turns a flat list of externally-declared tool definitions into
// remote-callable tools with collision-free names and argument validation.
//
// Each definition is converted once, per run, into a registered Tool value
// ({name, description, input schema, execute}) that speaks the MCP invocation
// contract: POST to the tool endpoint with session and tool headers plus a
// JSON body of {sessionId, toolName, arguments}. Invocations are observable
// through the run's trace recorder whether they succeed or fail.
package mcp
