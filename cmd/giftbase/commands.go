package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/giftbase/internal/catalog"
	"github.com/kalambet/giftbase/internal/config"
	"github.com/kalambet/giftbase/internal/imagecheck"
	"github.com/kalambet/giftbase/internal/ingestion"
	"github.com/kalambet/giftbase/internal/storage"
)

// --- upload ---

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a product spreadsheet to the running server",
	Long: `Upload a product spreadsheet (.xlsx or .csv) to the running server.

Examples:
  giftbase upload ./products.xlsx --shop acme
  giftbase upload ./seasonal.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shopID, _ := cmd.Flags().GetString("shop")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Uploading %s...", args[0])
		resp, err := client.postFile("/portal/upload", args[0], shopID)
		if err != nil {
			return err
		}

		var result struct {
			ResourceID    string `json:"resourceId"`
			RowsUpserted  int    `json:"rowsUpserted"`
			ImagesValid   int    `json:"imagesValid"`
			ImagesInvalid int    `json:"imagesInvalid"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Indexed %d rows as %s (%d images valid, %d invalid)",
			result.RowsUpserted, result.ResourceID, result.ImagesValid, result.ImagesInvalid)
		return nil
	},
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topK, _ := cmd.Flags().GetInt("limit")
		query := args[0]
		for _, a := range args[1:] {
			query += " " + a
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postJSON("/search", map[string]any{"query": query, "topK": topK})
		if err != nil {
			return err
		}

		var result struct {
			Products []struct {
				ID       string  `json:"id"`
				Score    float32 `json:"score"`
				Metadata struct {
					Content  string `json:"content"`
					ImageURL string `json:"imageUrl"`
				} `json:"metadata"`
			} `json:"products"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Products) == 0 {
			printWarning("No matching products")
			return nil
		}
		for _, p := range result.Products {
			fmt.Printf("%s %s\n", paint(ansiBold, fmt.Sprintf("[%.3f]", p.Score)), p.Metadata.Content)
			if p.Metadata.ImageURL != "" {
				fmt.Printf("        %s\n", p.Metadata.ImageURL)
			}
		}
		return nil
	},
}

// --- uploads ---

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "List recent uploads",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/uploads?limit=20")
		if err != nil {
			return err
		}

		var uploads []struct {
			ResourceID   string    `json:"resourceId"`
			RowsUpserted int       `json:"rowsUpserted"`
			CreatedAt    time.Time `json:"createdAt"`
		}
		if err := decodeJSON(resp, &uploads); err != nil {
			return err
		}

		if len(uploads) == 0 {
			printWarning("No uploads yet")
			return nil
		}
		for _, u := range uploads {
			printStatus(u.ResourceID, "%d rows at %s", u.RowsUpserted, u.CreatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

// --- seed ---

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Ingest a spreadsheet directly, without a running server",
	Long: `Ingest a product spreadsheet into the configured vector index without
going through the HTTP server. Useful for initial catalog loads.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shopID, _ := cmd.Flags().GetString("shop")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg)

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()

		sheet, err := catalog.ParseSpreadsheet(f, args[0])
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		resourceID, err := ingestion.ResourceID(shopID)
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		embedder, err := buildEmbedder(cfg)
		if err != nil {
			return err
		}
		vectors := buildVectorStore(cfg, store)
		validator := imagecheck.New(&http.Client{}, cfg.Ingest.ImageTimeoutDuration())
		pipeline := ingestion.New(embedder, validator, vectors, cfg.Ingest.ImageConcurrency)

		printStep("Ingesting %d rows as %s...", len(sheet.Rows), resourceID)
		summary, err := pipeline.Ingest(context.Background(), resourceID, sheet)
		if err != nil {
			return err
		}

		printSuccess("Indexed %d rows (%d images valid, %d invalid)",
			summary.RowsUpserted, summary.ImagesValid, summary.ImagesInvalid)
		return nil
	},
}

// --- reset ---

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every vector in the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete ALL indexed products. Use --confirm to proceed.")
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postJSON("/admin/reset", struct{}{})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Index reset")
		return nil
	},
}

func init() {
	uploadCmd.Flags().String("shop", "", "shop id to ingest under (default: timestamped batch)")
	searchCmd.Flags().Int("limit", 4, "maximum number of results")
	seedCmd.Flags().String("shop", "", "shop id to ingest under (default: timestamped batch)")
	resetCmd.Flags().Bool("confirm", false, "confirm index reset")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", paint(ansiBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
