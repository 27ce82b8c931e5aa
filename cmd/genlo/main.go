// Package main provides the genlo CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/genlo/cli"
	"github.com/richinex/genlo/config"
	"github.com/richinex/genlo/internal/logx"
	"github.com/richinex/genlo/tools"
)

var (
	// Global flags
	imageDir string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "genlo",
		Short: "Conversational assistant for text, creative writing and product images",
		Long: `A chat assistant that routes each message to the right model.

Image requests are enhanced and sent to the image model, creative requests
go to the creative writer, and everything else is answered by the text
model with function calling, web search and file search.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&imageDir, "image-dir", "images", "Directory for generated images (empty disables saving)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show enhanced prompts, function calls and usage")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(toolsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp loads settings, initializes logging and runs fn with a ready App.
func withApp(fn func(ctx context.Context, app *cli.App) error) error {
	s, err := config.New()
	if err != nil {
		return err
	}
	logx.Init(logx.Options{Environment: logx.ParseEnvironment(s.Env)})

	ctx := context.Background()
	app, err := cli.NewApp(ctx, s)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logx.Warn().Err(err).Msg("failed to close conversation store")
		}
	}()

	return fn(ctx, app)
}

func options() cli.Options {
	return cli.Options{ImageDir: imageDir, Verbose: verbose}
}

func chatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Use --session to resume a conversation kept by a persistent store
(STORE_BACKEND=sqlite or redis).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return cli.Chat(ctx, os.Stdin, os.Stdout, app.Sessions, sessionID, options())
			})
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to resume")

	return cmd
}

func askCmd() *cobra.Command {
	var imageURL string

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send a single message and print the reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return cli.Ask(ctx, os.Stdout, app.Sessions, args[0], imageURL, options())
			})
		},
	}

	cmd.Flags().StringVar(&imageURL, "image", "", "Reference image URL or data URI")

	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				return cli.Serve(ctx, app, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to SERVER_ADDR)")

	return cmd
}

func toolsCmd() *cobra.Command {
	var verboseTools bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List functions available to the text model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := tools.WithDefaults(nil)
			if err != nil {
				return err
			}
			cli.ListTools(os.Stdout, registry, verboseTools)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verboseTools, "verbose", "V", false, "Show function parameters")

	return cmd
}
