package cli

import (
	"github.com/spf13/cobra"

	"github.com/saeedalam/protodetect/internal/mcp"
)

var serveNoCache bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for IDE integration",
	Long: `Start the MCP (Model Context Protocol) server.

This allows IDE agents like Claude Desktop, Cursor, or other MCP-compatible
tools to call protodetect as a tool.

The server communicates via stdio (standard input/output) using JSON-RPC,
one message per line. Logs go to stderr.

Tools:
  detect_prototype            Detect the declaration at the start of a span
  find_block_end              Find the end of a balanced delimiter group
  parse_annotation_arguments  Split an annotation argument clause into key/value pairs
  list_profiles               List the language profiles
  search_prototypes           Search the prototype cache`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "Serve without the prototype cache")
}

func runServe(cmd *cobra.Command, args []string) error {
	opts := mcp.Options{
		Registry: env.registry,
		Logger:   env.log,
		Version:  buildVersion,
	}
	if !serveNoCache {
		c, err := openCache(false)
		if err != nil {
			return err
		}
		if c != nil {
			defer c.Close()
			opts.Cache = c
		}
	}

	env.log.Info("mcp server started", "profiles", len(env.registry.Profiles()), "cache", opts.Cache != nil)

	// Blocks until stdin closes
	return mcp.NewServer(opts).Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}
