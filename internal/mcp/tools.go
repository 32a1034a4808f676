package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/saeedalam/protodetect/internal/format"
	"github.com/saeedalam/protodetect/internal/prototype"
	"github.com/saeedalam/protodetect/internal/worker"
)

func (s *Server) handleToolsList(req *Request) {
	tools := []ToolInfo{
		{
			Name:        "detect_prototype",
			Description: "Recover the prototype of the declaration that follows a documentation comment. Pass the source text starting right after the comment. Returns modifiers, type, name, parameters and annotations; nothing past the signature is read.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"language": {Type: "string", Description: "Profile name, alias or file extension, e.g. 'java', 'cs', '.py'"},
					"source":   {Type: "string", Description: "Source text beginning after the documentation comment"},
					"offset":   {Type: "integer", Description: "Absolute offset of source in its file, used for reported ranges (default 0)"},
					"format":   {Type: "string", Description: "'json' (default), 'text' for annotations + signature, or 'detail' for a field listing"},
				},
				Required: []string{"language", "source"},
			},
		},
		{
			Name:        "find_block_end",
			Description: "Find the end of the balanced delimiter group that opens at offset, skipping string literals and comments.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"language": {Type: "string", Description: "Profile name, alias or file extension"},
					"source":   {Type: "string", Description: "Source text"},
					"offset":   {Type: "integer", Description: "Offset of the opening delimiter in source"},
				},
				Required: []string{"language", "source", "offset"},
			},
		},
		{
			Name:        "parse_annotation_arguments",
			Description: "Split an annotation argument clause such as '(name = \"x\", 3)' into ordered key/value pairs. Bare values have an empty key.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"arguments": {Type: "string", Description: "Argument clause text, with or without the surrounding parentheses"},
					"language":  {Type: "string", Description: "Profile used for literals and comments (default 'java')"},
				},
				Required: []string{"arguments"},
			},
		},
		{
			Name:        "list_profiles",
			Description: "List the language profiles available to detect_prototype.",
			InputSchema: InputSchema{
				Type: "object",
			},
		},
		{
			Name:        "search_prototypes",
			Description: "Search previously detected prototypes by name or signature words. Requires the cache.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query": {Type: "string", Description: "Words to match; each also matches as a prefix"},
					"limit": {Type: "integer", Description: "Max results, default 20"},
				},
				Required: []string{"query"},
			},
		},
	}

	s.sendResult(req.ID, map[string]interface{}{
		"tools": tools,
	})
}

// --- Tool Handlers ---

func (s *Server) handleDetectPrototype(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Language string `json:"language"`
		Source   string `json:"source"`
		Offset   int    `json:"offset"`
		Format   string `json:"format"`
	}
	if err := decodeArgs(params, &p); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if p.Language == "" {
		return nil, fmt.Errorf("language is required")
	}

	prof, err := s.registry.Resolve(p.Language)
	if err != nil {
		return nil, err
	}

	res := s.pool.Run(ctx, []worker.Job{{
		Source:  "mcp",
		Span:    prototype.Span{Text: p.Source, Offset: p.Offset},
		Profile: prof,
	}})[0]
	if res.Err != nil {
		return nil, res.Err
	}

	switch p.Format {
	case "", "json":
		return res.Prototype, nil
	case "text":
		return format.Prototype(res.Prototype), nil
	case "detail":
		return format.Detail(res.Prototype), nil
	}
	return nil, fmt.Errorf("unknown format %q", p.Format)
}

func (s *Server) handleFindBlockEnd(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Language string `json:"language"`
		Source   string `json:"source"`
		Offset   int    `json:"offset"`
	}
	if err := decodeArgs(params, &p); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if p.Offset < 0 || p.Offset >= len(p.Source) {
		return nil, fmt.Errorf("offset %d is outside the source", p.Offset)
	}

	prof, err := s.registry.Resolve(p.Language)
	if err != nil {
		return nil, err
	}

	end, err := prototype.Balance(p.Source, p.Offset, prof)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"start": p.Offset,
		"end":   end,
		"text":  p.Source[p.Offset:end],
	}, nil
}

func (s *Server) handleParseAnnotationArguments(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Arguments string `json:"arguments"`
		Language  string `json:"language"`
	}
	if err := decodeArgs(params, &p); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if p.Language == "" {
		p.Language = "java"
	}

	prof, err := s.registry.Resolve(p.Language)
	if err != nil {
		return nil, err
	}

	values, err := prototype.ParseAnnotationArguments(p.Arguments, prof)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"values": values,
		"total":  len(values),
	}, nil
}

func (s *Server) handleListProfiles(ctx context.Context, params json.RawMessage) (interface{}, error) {
	type summary struct {
		Name            string   `json:"name"`
		Aliases         []string `json:"aliases,omitempty"`
		Extensions      []string `json:"extensions,omitempty"`
		AnnotationStyle string   `json:"annotation_style"`
		ParameterStyle  string   `json:"parameter_style"`
	}

	var profiles []summary
	for _, p := range s.registry.Profiles() {
		profiles = append(profiles, summary{
			Name:            p.Name,
			Aliases:         p.Aliases,
			Extensions:      p.Extensions,
			AnnotationStyle: string(p.AnnotationStyle),
			ParameterStyle:  string(p.ParameterStyle),
		})
	}

	return map[string]interface{}{
		"profiles": profiles,
	}, nil
}

func (s *Server) handleSearchPrototypes(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := decodeArgs(params, &p); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if p.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if s.cache == nil {
		return nil, fmt.Errorf("the prototype cache is disabled")
	}

	entries, err := s.cache.Search(p.Query, p.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"prototypes": entries,
		"total":      len(entries),
	}, nil
}

func decodeArgs(params json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return nil
	}
	return json.Unmarshal(params, v)
}
