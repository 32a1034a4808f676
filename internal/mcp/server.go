// Package mcp serves prototype detection to IDE agents over the Model
// Context Protocol: line-delimited JSON-RPC 2.0 on stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/saeedalam/protodetect/internal/profile"
	"github.com/saeedalam/protodetect/internal/storage"
	"github.com/saeedalam/protodetect/internal/worker"
)

// Server is the MCP server
type Server struct {
	registry *profile.Registry
	pool     *worker.Pool
	cache    *storage.Cache // nil when caching is disabled
	log      *slog.Logger
	version  string
	tools    map[string]ToolHandler

	mu  sync.Mutex
	out io.Writer
}

// Options configures a Server
type Options struct {
	Registry *profile.Registry // defaults to profile.Default()
	Cache    *storage.Cache
	Logger   *slog.Logger
	Version  string
}

// ToolHandler handles a tool call
type ToolHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Request is a JSON-RPC request
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC response
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error is a JSON-RPC error
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes
const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// InitializeResult is the result of initialize
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

// ServerInfo contains server information
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities contains server capabilities
type Capabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// ToolsCapability contains tools capability
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ToolInfo describes a tool
type ToolInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema describes tool input
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a property
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// NewServer creates a new MCP server
func NewServer(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = profile.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	var cache worker.Cache
	if opts.Cache != nil {
		cache = opts.Cache
	}

	s := &Server{
		registry: opts.Registry,
		pool:     worker.NewPool(worker.Config{Workers: 1}, cache, opts.Logger),
		cache:    opts.Cache,
		log:      opts.Logger,
		version:  opts.Version,
		tools:    make(map[string]ToolHandler),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.tools["detect_prototype"] = s.handleDetectPrototype
	s.tools["find_block_end"] = s.handleFindBlockEnd
	s.tools["parse_annotation_arguments"] = s.handleParseAnnotationArguments
	s.tools["list_profiles"] = s.handleListProfiles
	s.tools["search_prototypes"] = s.handleSearchPrototypes
}

// Run serves requests read from in until it is exhausted or ctx is done.
// Responses are written to out, one JSON object per line.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	s.out = out

	scanner := bufio.NewScanner(in)
	// Increase buffer size for large messages
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			// No response: a null id is rejected by some clients
			s.log.Warn("parse error", "error", err)
			continue
		}

		s.handleRequest(ctx, &req)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

func (s *Server) handleRequest(ctx context.Context, req *Request) {
	s.log.Debug("request", "method", req.Method, "id", req.ID)

	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// No response needed
	case "ping":
		s.sendResult(req.ID, map[string]interface{}{})
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(ctx, req)
	default:
		s.sendError(req.ID, codeMethodNotFound, "Method not found", req.Method)
	}
}

func (s *Server) handleInitialize(req *Request) {
	result := InitializeResult{
		ProtocolVersion: "2024-11-05",
		ServerInfo: ServerInfo{
			Name:    "protodetect",
			Version: s.version,
		},
		Capabilities: Capabilities{
			Tools: &ToolsCapability{
				ListChanged: false,
			},
		},
	}
	s.sendResult(req.ID, result)
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}

	handler, ok := s.tools[params.Name]
	if !ok {
		s.sendError(req.ID, codeMethodNotFound, "Tool not found", params.Name)
		return
	}

	result, err := handler(ctx, params.Arguments)
	if err != nil {
		s.log.Debug("tool failed", "tool", params.Name, "error", err)
		s.sendResult(req.ID, toolResult(fmt.Sprintf("Error: %v", err), true))
		return
	}

	// Text renderings are passed through, everything else is shown as JSON
	text, ok := result.(string)
	if !ok {
		resultJSON, _ := json.MarshalIndent(result, "", "  ")
		text = string(resultJSON)
	}
	s.sendResult(req.ID, toolResult(text, false))
}

func toolResult(text string, isError bool) map[string]interface{} {
	res := map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": text,
			},
		},
	}
	if isError {
		res["isError"] = true
	}
	return res
}

func (s *Server) sendResult(id interface{}, result interface{}) {
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	s.send(resp)
}

func (s *Server) sendError(id interface{}, code int, message string, data interface{}) {
	// Notifications (no id) never get a response
	if id == nil {
		s.log.Warn("error without id", "message", message, "data", data)
		return
	}
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
	s.send(resp)
}

func (s *Server) send(resp Response) {
	output, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("encode response", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, string(output))
}
