/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mcptools "github.com/josephgoksu/ContextWing/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve retrieval tools to agents over MCP (stdio)",
	Long: `Start an MCP server on stdio exposing the relevance, learn_missing,
record_outcome, find_examples and score_pair tools.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// mcpMarkdownResponse wraps markdown text in an MCP tool result.
func mcpMarkdownResponse(markdown string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: markdown}},
	}, nil
}

// mcpErrorResponse returns the error inside the result with IsError=true so
// the agent can see it and correct the call.
func mcpErrorResponse(err error) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: mcptools.FormatError(err.Error())}},
		IsError: true,
	}, nil
}

// mcpToolResponse converts a handler result.
func mcpToolResponse(res *mcptools.ToolResult, err error) (*mcpsdk.CallToolResultFor[any], error) {
	if err != nil {
		return mcpErrorResponse(err)
	}
	if res.Error != "" {
		return mcpErrorResponse(errors.New(res.Error))
	}
	return mcpMarkdownResponse(res.Content)
}

// registerTools adds every retrieval tool to server.
func registerTools(server *mcpsdk.Server, h *mcptools.Handlers) {
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: mcptools.ToolRelevance,
		Description: `Retrieve context for an intent before making a change. Returns essential,
contextual and reference knowledge within a token budget, plus blind spots
for hinted areas nothing covers. Use {"intent":"...","hints":["path/to/file"]}.`,
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcptools.RelevanceParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(h.HandleRelevance(ctx, params.Arguments))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        mcptools.ToolLearnMissing,
		Description: "Report context a task needed but did not get, so later relevance queries surface it.",
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcptools.LearnMissingParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(h.HandleLearnMissing(ctx, params.Arguments))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        mcptools.ToolRecordOutcome,
		Description: "Report how a task ended (success, failure, partial). Missing context of unsuccessful tasks is learned.",
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcptools.RecordOutcomeParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(h.HandleRecordOutcome(ctx, params.Arguments))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        mcptools.ToolFindExamples,
		Description: "Find indexed code similar to a description. Use {\"text\":\"...\",\"limit\":5}.",
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcptools.FindExamplesParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(h.HandleFindExamples(ctx, params.Arguments))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        mcptools.ToolScorePair,
		Description: "Explain the graph-augmented similarity of two files given their raw embedding similarity.",
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcptools.ScorePairParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(h.HandleScorePair(ctx, params.Arguments))
	})
}

func runMCPServer(ctx context.Context) error {
	// stdout carries JSON-RPC; status output goes to stderr only.
	fmt.Fprintln(os.Stderr, "ContextWing MCP server starting...")

	p, err := openPipeline(ctx, true)
	if err != nil {
		return fmt.Errorf("initialize retrieval: %w", err)
	}
	defer func() { _ = p.Close() }()

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "contextwing-mcp",
		Version: version,
	}, &mcpsdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.InitializedParams) {
			if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "✓ MCP connection established")
			}
		},
	})
	registerTools(server, mcptools.NewHandlers(p.engine, p.graph, p.scorer))

	if err := server.Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
