package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/giftbase/internal/product"
	"github.com/kalambet/giftbase/internal/search"
	"github.com/kalambet/giftbase/internal/storage"
	"github.com/kalambet/giftbase/internal/vectorstore"
)

func newTestMCPDeps(t *testing.T) MCPDeps {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return MCPDeps{
		Retriever: &fakeSearcher{},
		Products:  &fakeProducts{products: map[string]product.Product{}},
		Store:     store,
		TopK:      4,
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestMCPSearchProducts(t *testing.T) {
	deps := newTestMCPDeps(t)
	valid := true
	deps.Retriever = &fakeSearcher{results: []search.Result{
		{
			ID:    "shop-1-0",
			Score: 0.92,
			Metadata: vectorstore.Metadata{
				Content:    "Name: Mug. Description: Ceramic mug.",
				ImageURL:   "https://example.com/mug.jpg",
				ImageValid: &valid,
			},
		},
	}}

	handler := mcpSearchProducts(deps)
	result, err := handler(context.Background(), makeCallToolRequest("search_products", map[string]interface{}{
		"query": "a mug for tea",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var products []struct {
		ID       string  `json:"id"`
		Content  string  `json:"content"`
		ImageURL string  `json:"imageUrl"`
		Score    float32 `json:"score"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &products); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if len(products) != 1 || products[0].ID != "shop-1-0" {
		t.Errorf("products = %+v", products)
	}
	if products[0].ImageURL == "" {
		t.Error("valid image url missing from result")
	}
}

func TestMCPSearchProducts_MissingQuery(t *testing.T) {
	handler := mcpSearchProducts(newTestMCPDeps(t))
	result, err := handler(context.Background(), makeCallToolRequest("search_products", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing query")
	}
}

func TestMCPSearchProducts_NoResults(t *testing.T) {
	handler := mcpSearchProducts(newTestMCPDeps(t))
	result, err := handler(context.Background(), makeCallToolRequest("search_products", map[string]interface{}{
		"query": "anything",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := toolText(t, result); got != "[]" {
		t.Errorf("result = %q, want []", got)
	}
}

func TestMCPGetProduct(t *testing.T) {
	deps := newTestMCPDeps(t)
	deps.Products = &fakeProducts{products: map[string]product.Product{
		"shop-1-0": {ID: "shop-1-0", Name: "Mug", ResourceID: "shop-1", Content: "Name: Mug."},
	}}

	handler := mcpGetProduct(deps)
	result, err := handler(context.Background(), makeCallToolRequest("get_product", map[string]interface{}{
		"id": "shop-1-0",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var p product.Product
	if err := json.Unmarshal([]byte(toolText(t, result)), &p); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if p.Name != "Mug" {
		t.Errorf("Name = %q", p.Name)
	}
}

func TestMCPGetProduct_NotFound(t *testing.T) {
	handler := mcpGetProduct(newTestMCPDeps(t))
	result, err := handler(context.Background(), makeCallToolRequest("get_product", map[string]interface{}{
		"id": "missing",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for unknown product")
	}
	if !strings.Contains(toolText(t, result), "missing") {
		t.Errorf("error text = %q", toolText(t, result))
	}
}

func TestMCPResourceRecent(t *testing.T) {
	deps := newTestMCPDeps(t)
	if err := deps.Store.SaveUpload(storage.Upload{
		ID:           "u1",
		ResourceID:   "shop-1",
		RowsUpserted: 12,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}

	handler := mcpResourceRecent(deps)
	contents, err := handler(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "catalog://recent"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}

	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	var summaries []struct {
		ResourceID string `json:"resourceId"`
		Rows       int    `json:"rows"`
	}
	if err := json.Unmarshal([]byte(text.Text), &summaries); err != nil {
		t.Fatalf("decoding resource: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ResourceID != "shop-1" || summaries[0].Rows != 12 {
		t.Errorf("summaries = %+v", summaries)
	}
}
