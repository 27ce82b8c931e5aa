// Command execution for CLI commands.
//
// Information Hiding:
// - REPL command parsing hidden
// - Envelope rendering and image saving hidden
// - Server lifecycle hidden

package cli

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/richinex/genlo/flow"
	"github.com/richinex/genlo/model"
	"github.com/richinex/genlo/server"
	"github.com/richinex/genlo/session"
	"github.com/richinex/genlo/tools"
)

// Sessions is what the chat commands need from the session layer.
type Sessions interface {
	Process(ctx context.Context, id string, req flow.Request) model.Envelope
	History(ctx context.Context, id string) ([]model.Turn, error)
	Clear(ctx context.Context, id string) error
}

// Options holds CLI rendering options.
type Options struct {
	// ImageDir receives generated images that arrive as data URIs.
	// Empty disables saving.
	ImageDir string
	Verbose  bool
}

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	replyColor  = color.New(color.FgGreen)
	imageColor  = color.New(color.FgMagenta)
	warnColor   = color.New(color.FgYellow)
	dimColor    = color.New(color.Faint)
)

const chatHelp = `Commands:
  /image <url> [message]  attach a reference image (to the next message if none given)
  /clear                  clear the conversation
  /history                show the conversation
  /help                   show this help
  exit, quit              leave the chat`

// Chat runs an interactive session reading lines from in until EOF or exit.
func Chat(ctx context.Context, in io.Reader, out io.Writer, sessions Sessions, sessionID string, opts Options) error {
	if sessionID == "" {
		sessionID = session.NewID()
	}

	if history, err := sessions.History(ctx, sessionID); err == nil && len(history) > 0 {
		fmt.Fprintf(out, "Resuming session '%s' (%d messages)\n\n", sessionID, len(history))
	}
	fmt.Fprintf(out, "Chat session %s. Type /help for commands, 'exit' to quit.\n\n", dimColor.Sprint(sessionID))

	var pendingImage string
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		promptColor.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case input == "exit" || input == "quit":
			return nil
		case input == "/help":
			fmt.Fprintln(out, chatHelp)
			continue
		case input == "/clear":
			if err := sessions.Clear(ctx, sessionID); err != nil {
				warnColor.Fprintf(out, "Warning: failed to clear session: %v\n", err)
			} else {
				pendingImage = ""
				fmt.Fprintln(out, "Conversation cleared.")
			}
			continue
		case input == "/history":
			printHistory(ctx, out, sessions, sessionID)
			continue
		case strings.HasPrefix(input, "/image"):
			url, message := parseImageCommand(input)
			if url == "" {
				warnColor.Fprintln(out, "Usage: /image <url> [message]")
				continue
			}
			if message == "" {
				pendingImage = url
				fmt.Fprintln(out, "Reference image attached to your next message.")
				continue
			}
			pendingImage, input = url, message
		}

		env := sessions.Process(ctx, sessionID, flow.Request{
			Message:           input,
			ReferenceImageURL: pendingImage,
		})
		pendingImage = ""
		printEnvelope(out, env, opts)
	}
	return scanner.Err()
}

// Ask sends a single message in a fresh session and prints the reply.
func Ask(ctx context.Context, out io.Writer, sessions Sessions, message, imageURL string, opts Options) error {
	env := sessions.Process(ctx, session.NewID(), flow.Request{
		Message:           message,
		ReferenceImageURL: imageURL,
	})
	printEnvelope(out, env, opts)
	if env.Content == flow.ApologyMessage {
		return errors.New("request failed")
	}
	return nil
}

// Serve runs the HTTP API until interrupted.
func Serve(ctx context.Context, app *App, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.Settings.Server
	if addr == "" {
		addr = cfg.Addr
	}
	srv := server.New(app.Sessions, server.Config{
		Addr:               addr,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
		WriteTimeout:       app.Settings.ProviderTimeout + 30*time.Second,
	})

	if idle := app.Settings.Store.IdleTimeout; idle > 0 {
		go app.Sessions.RunPruner(ctx, idle/2, idle)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// ListTools prints the functions the text model may call.
func ListTools(out io.Writer, registry *tools.Registry, verbose bool) {
	fmt.Fprintln(out, "Available functions:")
	fmt.Fprintln(out)

	for _, meta := range registry.List() {
		fmt.Fprintf(out, "  %s\n", color.CyanString(meta.Name))
		fmt.Fprintf(out, "    %s\n", meta.Description)

		if verbose && len(meta.Parameters) > 0 {
			fmt.Fprintln(out, "    Parameters:")
			for _, param := range meta.Parameters {
				req := ""
				if param.Required {
					req = "*"
				}
				fmt.Fprintf(out, "      %s%s: %s - %s\n", param.Name, req, param.ParamType, param.Description)
			}
		}
		fmt.Fprintln(out)
	}
}

func parseImageCommand(input string) (url, message string) {
	fields := strings.Fields(strings.TrimPrefix(input, "/image"))
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

func printHistory(ctx context.Context, out io.Writer, sessions Sessions, id string) {
	history, err := sessions.History(ctx, id)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		warnColor.Fprintf(out, "Warning: failed to load history: %v\n", err)
		return
	}
	if len(history) == 0 {
		fmt.Fprintln(out, "(no messages)")
		return
	}
	for _, turn := range history {
		fmt.Fprintf(out, "%s: %s\n", dimColor.Sprint(turn.Role), truncateString(turn.Content, 200))
	}
}

func printEnvelope(out io.Writer, env model.Envelope, opts Options) {
	fmt.Fprintln(out)
	replyColor.Fprintln(out, env.Content)

	if env.Type == model.EnvelopeImage && env.ImageURL != "" {
		location := env.ImageURL
		if strings.HasPrefix(location, "data:") {
			location = truncateString(location, 60)
			if opts.ImageDir != "" {
				if path, err := saveDataURI(opts.ImageDir, env.ImageURL); err != nil {
					warnColor.Fprintf(out, "Warning: failed to save image: %v\n", err)
				} else {
					location = path
				}
			}
		}
		imageColor.Fprintf(out, "Image: %s\n", location)
	}

	if opts.Verbose {
		if env.EnhancedPrompt != "" {
			dimColor.Fprintf(out, "Enhanced prompt: %s\n", env.EnhancedPrompt)
		}
		for _, call := range env.FunctionCalls {
			dimColor.Fprintf(out, "Function %s(%s) -> %s\n", call.FunctionName, call.Arguments, truncateString(call.Result, 200))
		}
		for _, call := range env.WebSearchCalls {
			dimColor.Fprintf(out, "Web search %q (%s)\n", call.Query, call.Status)
		}
		if env.Usage != nil {
			dimColor.Fprintf(out, "Tokens: %d in, %d out\n", env.Usage.InputTokens, env.Usage.OutputTokens)
		}
	}
	fmt.Fprintln(out)
}

// saveDataURI writes a base64 data URI to dir and returns the file path.
func saveDataURI(dir, uri string) (string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", fmt.Errorf("not a base64 data URI")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	ext := ".png"
	switch strings.TrimSuffix(header, ";base64") {
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("genlo-%d%s", time.Now().UnixNano(), ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
