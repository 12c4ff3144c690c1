package api

import (
	"log/slog"

	"github.com/hazyhaar/slp-atlas/pkg/kit"
	"github.com/hazyhaar/slp-atlas/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported to MCP clients.
var Version = "dev"

// NewMCPServer returns an MCP server exposing the atlas tools.
func NewMCPServer(sess *session.Session, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := server.NewMCPServer("slp-atlas", Version, server.WithToolCapabilities(false))
	RegisterMCPTools(srv, sess, logger)
	return srv
}

// RegisterMCPTools registers the three atlas MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, sess *session.Session, logger *slog.Logger) {
	registerRegionStats(srv, sess, logger)
	registerVerifyData(srv, sess, logger)
	registerListRegions(srv, sess, logger)
}

func levelOption() mcp.ToolOption {
	return mcp.WithString("level",
		mcp.Description("Boundary level: district or subdistrict (defaults to the active level)"),
		mcp.Enum(string(session.District), string(session.SubDistrict)),
	)
}

func registerRegionStats(srv *server.MCPServer, sess *session.Session, logger *slog.Logger) {
	tool := mcp.NewTool("region_stats",
		mcp.WithDescription("Survey statistics of one region: total sampled and the count and percentage of each fluency category."),
		mcp.WithString("name", mcp.Required(), mcp.Description("District or sub-district name, e.g. Batticaloa")),
		levelOption(),
	)

	kit.RegisterMCPTool(srv, tool, kit.Logging(logger, "region_stats")(regionStatsEndpoint(sess)),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args := req.GetArguments()
			name, _ := args["name"].(string)
			level, _ := args["level"].(string)
			return &kit.MCPDecodeResult{Request: &regionStatsReq{Name: name, Level: level}}, nil
		})
}

func registerVerifyData(srv *server.MCPServer, sess *session.Session, logger *slog.Logger) {
	tool := mcp.NewTool("verify_data",
		mcp.WithDescription("Run the consistency checks (cross-level totals, record counts, sub-district name uniqueness) and return every violation."),
	)

	kit.RegisterMCPTool(srv, tool, kit.Logging(logger, "verify_data")(verifyEndpoint(sess)),
		func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			return &kit.MCPDecodeResult{Request: nil}, nil
		})
}

func registerListRegions(srv *server.MCPServer, sess *session.Session, logger *slog.Logger) {
	tool := mcp.NewTool("list_regions",
		mcp.WithDescription("List the boundary features of a level with whether survey data exists for each."),
		levelOption(),
	)

	kit.RegisterMCPTool(srv, tool, kit.Logging(logger, "list_regions")(regionsEndpoint(sess)),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			level, _ := req.GetArguments()["level"].(string)
			return &kit.MCPDecodeResult{Request: &levelReq{Level: level}}, nil
		})
}
