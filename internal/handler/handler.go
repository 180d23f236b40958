// Package handler exposes Redmine operations as two MCP tools, redmine_read
// and redmine_write, dispatched by verb.
package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/metrics"
	"redmine-mcp/internal/types"
)

// Tool names.
const (
	ReadTool  = "redmine_read"
	WriteTool = "redmine_write"
)

const serverInstructions = `Redmine issue tracker access.
Use redmine_read for lookups and redmine_write for changes. Call either tool
with param="help" to list verbs, or with a verb and param="help" for usage.
Read an issue with get_issue before updating it: update_issue needs the
checksums printed at the end of get_issue.`

// Handler serves tool calls against one Redmine instance.
type Handler struct {
	client   *client.Client
	readOnly bool
}

// New returns a handler. In read-only mode the write tool is not offered.
func New(c *client.Client, readOnly bool) *Handler {
	return &Handler{client: c, readOnly: readOnly}
}

// NewServer builds an MCP server with the handler's tools registered.
func NewServer(h *Handler, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"redmine-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)
	s.AddTools(h.Tools()...)
	return s
}

// Tools returns the tool definitions with their handlers.
func (h *Handler) Tools() []server.ServerTool {
	tools := []server.ServerTool{{
		Tool: mcp.NewTool(ReadTool,
			mcp.WithDescription("Read from Redmine. Verbs: "+strings.Join(sortedVerbs(types.ReadVerbHelp), ", ")+". IMPORTANT: Call with param=\"help\" first to learn verb usage."),
			mcp.WithString("verb", mcp.Required(), mcp.Description("Operation: "+strings.Join(sortedVerbs(types.ReadVerbHelp), ", "))),
			mcp.WithString("param", mcp.Required(), mcp.Description("Issue number/URL, JSON params, query, or \"help\" for usage")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: h.handleRead,
	}}

	if !h.readOnly {
		tools = append(tools, server.ServerTool{
			Tool: mcp.NewTool(WriteTool,
				mcp.WithDescription("Write to Redmine. Verbs: "+strings.Join(sortedVerbs(types.WriteVerbHelp), ", ")+". IMPORTANT: Call with param=\"help\" first to learn verb usage."),
				mcp.WithString("verb", mcp.Required(), mcp.Description("Operation: "+strings.Join(sortedVerbs(types.WriteVerbHelp), ", "))),
				mcp.WithString("param", mcp.Required(), mcp.Description("JSON params or \"help\" for usage")),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(false),
			),
			Handler: h.handleWrite,
		})
	}
	return tools
}

type verbFunc func(ctx context.Context, param string) (string, error)

func (h *Handler) handleRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := verbArgs(req)
	if args.Param == "help" {
		return verbHelp(args.Verb, "read", types.ReadVerbHelp), nil
	}
	return h.dispatch(ctx, ReadTool, args, h.readVerbs(), types.ReadVerbHelp), nil
}

func (h *Handler) handleWrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := verbArgs(req)
	if args.Param == "help" {
		return verbHelp(args.Verb, "write", types.WriteVerbHelp), nil
	}
	if h.readOnly {
		return errorResult("Server is in read-only mode"), nil
	}
	return h.dispatch(ctx, WriteTool, args, h.writeVerbs(), types.WriteVerbHelp), nil
}

func (h *Handler) dispatch(ctx context.Context, tool string, args types.VerbArgs, verbs map[string]verbFunc, help map[string]string) *mcp.CallToolResult {
	log := logrus.WithFields(logrus.Fields{"tool": tool, "verb": args.Verb})

	fn, ok := verbs[args.Verb]
	if !ok {
		metrics.ObserveToolCall(tool, "unknown", metrics.OutcomeError)
		log.Warn("unknown verb")
		return errorResult(fmt.Sprintf("Unknown verb: %s. Valid: %s", args.Verb, strings.Join(sortedVerbs(help), ", ")))
	}

	text, err := fn(ctx, args.Param)
	if err != nil {
		metrics.ObserveToolCall(tool, args.Verb, metrics.OutcomeError)
		log.WithError(err).Warn("tool call failed")
		return errorResult(err.Error())
	}

	metrics.ObserveToolCall(tool, args.Verb, metrics.OutcomeOK)
	log.Info("tool call")
	return successResult(text)
}

// verbArgs reads verb and param. A "redmine_" prefix on the verb is accepted.
func verbArgs(req mcp.CallToolRequest) types.VerbArgs {
	return types.VerbArgs{
		Verb:  parseVerb(req.GetString("verb", "")),
		Param: strings.TrimSpace(req.GetString("param", "")),
	}
}

// parseVerb normalizes "Redmine_Get_Issue" to "get_issue".
func parseVerb(verb string) string {
	verb = strings.ToLower(strings.TrimSpace(verb))
	return strings.TrimPrefix(verb, "redmine_")
}

// verbHelp returns help for one verb, or the list of verbs.
func verbHelp(verb, kind string, help map[string]string) *mcp.CallToolResult {
	if text, ok := help[verb]; ok {
		return successResult(text)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Available %s verbs:\n\n", kind))
	for _, v := range sortedVerbs(help) {
		sb.WriteString("- " + v + "\n")
	}
	sb.WriteString("\nCall with a verb and param=\"help\" for its usage.\n")
	return successResult(sb.String())
}

func sortedVerbs(help map[string]string) []string {
	verbs := make([]string, 0, len(help))
	for v := range help {
		verbs = append(verbs, v)
	}
	sort.Strings(verbs)
	return verbs
}

// successResult creates a successful tool result.
func successResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

// errorResult creates an error tool result.
func errorResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultError(text)
}
