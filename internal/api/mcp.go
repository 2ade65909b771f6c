package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/giftbase/internal/product"
	"github.com/kalambet/giftbase/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Retriever Searcher
	Products  ProductReader
	Store     *storage.Store
	TopK      int
}

// NewMCPServer creates an MCP server exposing the catalog to assistant hosts:
// semantic product search, direct product lookup, and recent upload history.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"giftbase",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("giftbase — gift catalog search over vendor-uploaded product sheets."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("search_products",
			mcp.WithDescription("Semantically search the gift catalog and return relevant products."),
			mcp.WithString("query", mcp.Description("What the shopper is looking for"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 4)")),
		),
		mcpSearchProducts(deps),
	)

	s.AddTool(
		mcp.NewTool("get_product",
			mcp.WithDescription("Fetch a single catalog product by its id."),
			mcp.WithString("id", mcp.Description("Product id, e.g. shop-7-12"), mcp.Required()),
		),
		mcpGetProduct(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"catalog://recent",
			"Recent Uploads",
			mcp.WithResourceDescription("Last 10 catalog uploads with row counts"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpSearchProducts(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", deps.TopK)
		if limit <= 0 {
			limit = deps.TopK
		}
		if limit > 50 {
			limit = 50
		}

		results, err := deps.Retriever.Search(ctx, query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if len(results) == 0 {
			return mcpText("[]"), nil
		}

		type productResult struct {
			ID       string  `json:"id"`
			Content  string  `json:"content"`
			ImageURL string  `json:"imageUrl,omitempty"`
			Score    float32 `json:"score"`
		}
		out := make([]productResult, len(results))
		for i, res := range results {
			out[i] = productResult{
				ID:      res.ID,
				Content: res.Metadata.Content,
				Score:   res.Score,
			}
			if res.Metadata.ImageValid != nil && *res.Metadata.ImageValid {
				out[i].ImageURL = res.Metadata.ImageURL
			}
		}

		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetProduct(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		p, err := deps.Products.FindByID(ctx, id)
		if errors.Is(err, product.ErrNotFound) {
			return mcpError(fmt.Sprintf("no product with id %q", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("lookup failed: %v", err)), nil
		}

		b, err := json.Marshal(p)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal product: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uploads, err := deps.Store.ListUploads(10)
		if err != nil {
			return nil, fmt.Errorf("listing uploads: %w", err)
		}

		type uploadSummary struct {
			ResourceID string `json:"resourceId"`
			Rows       int    `json:"rows"`
			CreatedAt  string `json:"createdAt"`
		}
		summaries := make([]uploadSummary, len(uploads))
		for i, u := range uploads {
			summaries[i] = uploadSummary{
				ResourceID: u.ResourceID,
				Rows:       u.RowsUpserted,
				CreatedAt:  u.CreatedAt.Format(time.RFC3339),
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("marshaling uploads: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
