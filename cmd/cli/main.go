// Package main provides the CLI tool for the thumbnail-service. It runs
// the same pipelines as the HTTP server, which is handy for trying a
// content id without going through the portal.
//
// Run with: go run ./cmd/cli variations do_123
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/thumbnail-service/internal/app"
	"github.com/fleveque/thumbnail-service/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "thumbgen",
		Short: "Thumbnail service CLI tools",
		// Usage output on pipeline errors just buries the error.
		SilenceUsage: true,
	}

	root.AddCommand(variationsCmd(), courseCmd(), documentsCmd(), statsCmd())
	return root
}

func variationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variations <content-id>",
		Short: "Generate image variations of a content item's thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
				if a.Variations == nil {
					return nil, fmt.Errorf("variation pipeline is not configured (set gemini.api_key or gemini.project)")
				}
				return a.Variations.Generate(ctx, args[0])
			})
		},
	}
}

func courseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "course <course-id>",
		Short: "Generate a new course image from the course TOC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
				if a.Courses == nil {
					return nil, fmt.Errorf("course pipeline is not configured (set openai.api_key)")
				}
				return a.Courses.Generate(ctx, args[0])
			})
		},
	}
}

func documentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents <file>...",
		Short: "Summarize text files and propose an image prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := make([]string, 0, len(args))
			for _, name := range args {
				data, err := readDocument(name)
				if err != nil {
					return err
				}
				docs = append(docs, data)
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
				if a.Documents == nil {
					return nil, fmt.Errorf("document pipeline is not configured (set openai.api_key)")
				}
				return a.Documents.Generate(ctx, docs)
			})
		},
	}
}

func statsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show generation run counts and recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
				total, err := a.RunRepo.Count(ctx)
				if err != nil {
					return nil, err
				}
				calls, err := a.CallRepo.CountByProvider(ctx)
				if err != nil {
					return nil, err
				}
				recent, err := a.RunRepo.ListRecent(ctx, limit)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"total":        total,
					"vendor_calls": calls,
					"recent":       recent,
				}, nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of recent runs to show")
	return cmd
}

// withApp loads config, builds the application, runs fn with a context
// cancelled on Ctrl+C and prints the result as JSON.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) (any, error)) error {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("THUMBGEN_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Always use development mode for the CLI
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}
	defer a.Close()

	result, err := fn(ctx, a)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readDocument(name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}
