// Package mcpbridge exposes the command registry as MCP tools: each chat
// command becomes a tool taking a single optional "args" string.
package mcpbridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/Matthew-123-dev/simpomni-bot/internal/commands"
)

// Bridge runs commands on behalf of MCP clients as if they were sent from
// one private chat.
type Bridge struct {
	registry *commands.Registry
	chatID   int64
}

func New(reg *commands.Registry, chatID int64) *Bridge {
	return &Bridge{registry: reg, chatID: chatID}
}

// NewServer builds an MCP server with every registered command as a tool.
func NewServer(name, version string, b *Bridge) (*server.MCPServer, error) {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(true))
	if err := b.RegisterTools(s); err != nil {
		return nil, err
	}
	return s, nil
}

// RegisterTools adds one tool per command, in registration order.
func (b *Bridge) RegisterTools(s *server.MCPServer) error {
	for _, c := range b.registry.Commands() {
		tool := mcp.NewTool(c.Name,
			mcp.WithDescription(c.Description),
			mcp.WithString("args", mcp.Description("Arguments exactly as typed after /"+c.Name)),
		)
		s.AddTool(tool, b.handler(c.Name))
	}
	return nil
}

func (b *Bridge) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw := req.GetString("args", "")
		args := strings.Fields(raw)

		log.Debug().Str("command", name).Strs("args", args).Msg("handling tool call")

		start := time.Now()
		out := &commands.Collector{}
		err := b.registry.Dispatch(ctx, name, commands.Request{
			ChatID:   b.chatID,
			ChatType: "private",
			Args:     args,
			Text:     strings.TrimSpace("/" + name + " " + raw),
		}, out)
		elapsed := time.Since(start)

		if err != nil {
			log.Error().Err(err).Str("command", name).Dur("elapsed", elapsed).Msg("tool call failed")
			return mcp.NewToolResultError(fmt.Sprintf("/%s failed: %v", name, err)), nil
		}

		log.Debug().Str("command", name).Int("replies", len(out.Texts())).Dur("elapsed", elapsed).Msg("tool call completed")
		return mcp.NewToolResultText(strings.Join(out.Texts(), "\n")), nil
	}
}

// ServeStdio serves s over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
