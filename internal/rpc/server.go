package rpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/tools"
)

// Server dispatches line-delimited JSON-RPC 2.0 requests into a tool
// registry. One Server instance serves one client connection (one stdio
// session); concurrent requests on that connection are processed
// sequentially, matching the teacher's stdio transport's single
// request-at-a-time framing.
type Server struct {
	registry *tools.Registry
	name     string
	version  string

	writeMu sync.Mutex
}

// NewServer builds a Server dispatching into reg, identifying itself as
// name/version during the initialize handshake.
func NewServer(reg *tools.Registry, name, version string) *Server {
	return &Server{registry: reg, name: name, version: version}
}

// Serve reads newline-delimited JSON-RPC messages from in and writes
// responses to out until in is exhausted or ctx is cancelled. Malformed
// lines produce a parse-error response rather than terminating the
// session, so one bad line doesn't kill the connection.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		resp := s.handleLine(ctx, line)
		if resp == nil {
			continue
		}
		if err := s.writeResponse(out, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

func (s *Server) writeResponse(out io.Writer, resp *Response) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

// handleLine decodes and dispatches one line. A nil return means no
// response should be written, either because the line was a notification
// or because the request's own ID could not be recovered for an error
// reply (rare — only when the JSON itself fails to parse as an object at
// all).
func (s *Server) handleLine(ctx context.Context, line []byte) *Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		logging.Get(logging.CategoryTools).Warn("rpc: failed to parse request: %v", err)
		return errorResponse(json.RawMessage("null"), CodeParseError, "parse error", err.Error())
	}

	id := json.RawMessage("null")
	if req.ID != nil {
		id = *req.ID
	}

	switch req.Method {
	case "initialize":
		return resultResponse(id, s.handleInitialize())
	case "ping":
		return resultResponse(id, map[string]interface{}{})
	case "tools/list":
		return resultResponse(id, s.handleToolsList())
	case "tools/call":
		result, rpcErr := s.handleToolsCall(ctx, req.Params)
		if rpcErr != nil {
			return &Response{JSONRPC: "2.0", ID: id, Error: rpcErr}
		}
		return resultResponse(id, result)
	case "notifications/initialized", "notifications/cancelled":
		// Notifications carry no id and expect no response, per JSON-RPC 2.0.
		if req.isNotification() {
			logging.ToolsDebug("rpc: received notification %s", req.Method)
			return nil
		}
		return errorResponse(id, CodeInvalidRequest, "notification method called as a request", nil)
	default:
		if req.isNotification() {
			return nil
		}
		return errorResponse(id, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}
}

type initializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      serverInfo             `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (s *Server) handleInitialize() initializeResult {
	return initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]interface{}{"tools": map[string]interface{}{}},
		ServerInfo:      serverInfo{Name: s.name, Version: s.version},
	}
}

type toolDescriptor struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	InputSchema tools.ToolSchema  `json:"inputSchema"`
}

type toolsListResult struct {
	Tools []toolDescriptor `json:"tools"`
}

func (s *Server) handleToolsList() toolsListResult {
	all := s.registry.All()
	descs := make([]toolDescriptor, 0, len(all))
	for _, t := range all {
		descs = append(descs, toolDescriptor{Name: t.Name, Description: t.Description, InputSchema: t.Schema})
	}
	return toolsListResult{Tools: descs}
}

type toolsCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type toolsCallResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (s *Server) handleToolsCall(ctx context.Context, raw json.RawMessage) (*toolsCallResult, *Error) {
	var params toolsCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid params", Data: err.Error()}
	}
	if params.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "missing required param: name"}
	}

	result, err := s.registry.Execute(ctx, params.Name, params.Arguments)
	if err != nil {
		return &toolsCallResult{IsError: true, Content: []toolContent{{Type: "text", Text: err.Error()}}}, nil
	}

	return &toolsCallResult{Content: []toolContent{{Type: "text", Text: result.Result}}}, nil
}
