package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/devfolio/internal/config"
	"github.com/kalambet/devfolio/internal/extract"
	"github.com/kalambet/devfolio/internal/ingest"
	"github.com/kalambet/devfolio/internal/pipeline"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation with the assistant",
	Long: `Start an interactive chat. Each line is sent as a message; the reply is
printed and the canvas is updated on the server.

Slash commands:
  /canvas          show the current canvas
  /undo            revert the last canvas change
  /refresh         regenerate the canvas from the conversation
  /clear           reset the canvas to the mode template
  /mode <mode>     switch mode (personal_bio, project_summaries, learning_reflections)
  /quit            leave`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		modeName, _ := cmd.Flags().GetString("mode")
		plain, _ := cmd.Flags().GetBool("plain")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), client, os.Stdin, os.Stdout, sessionID, modeName, plain)
	},
}

func init() {
	chatCmd.Flags().String("session", "", "resume an existing session")
	chatCmd.Flags().String("mode", "", "mode for a new session")
	chatCmd.Flags().Bool("plain", false, "print markdown without terminal rendering")
}

func runChat(ctx context.Context, client *apiClient, in io.Reader, out io.Writer, sessionID, modeName string, plain bool) error {
	var res pipeline.TurnResult
	var err error
	if sessionID == "" {
		var body any
		if modeName != "" {
			body = map[string]string{"mode": modeName}
		}
		res, err = client.turn(ctx, http.MethodPost, "/sessions", body)
	} else {
		res, err = client.turn(ctx, http.MethodGet, sessionPath(sessionID), nil)
	}
	if err != nil {
		return err
	}
	sessionID = res.SessionID
	fmt.Fprintf(out, "Session %s (%s). Type /quit to leave.\n", sessionID, res.Mode)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, colorize(colorCyan, "> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmdName, arg, _ := strings.Cut(line, " ")
		switch cmdName {
		case "/quit", "/exit":
			return nil
		case "/canvas":
			res, err = client.turn(ctx, http.MethodGet, sessionPath(sessionID), nil)
			if err == nil {
				writeMarkdown(out, res.Canvas, plain)
			}
		case "/undo", "/refresh", "/clear":
			res, err = client.turn(ctx, http.MethodPost, sessionPath(sessionID, "canvas", cmdName[1:]), nil)
		case "/mode":
			res, err = client.turn(ctx, http.MethodPut, sessionPath(sessionID, "mode"), map[string]string{"mode": strings.TrimSpace(arg)})
		default:
			if strings.HasPrefix(cmdName, "/") {
				fmt.Fprintf(out, "unknown command %s\n", cmdName)
				continue
			}
			res, err = client.turn(ctx, http.MethodPost, sessionPath(sessionID, "messages"), map[string]string{"message": line})
		}
		if err != nil {
			fmt.Fprintln(out, colorize(colorRed, "✗ "+err.Error()))
			continue
		}
		if cmdName != "/canvas" && res.Reply != "" {
			writeMarkdown(out, res.Reply, plain)
			fmt.Fprintln(out)
		}
	}
}

// --- canvas ---

var canvasCmd = &cobra.Command{
	Use:   "canvas",
	Short: "Show or replace a session canvas",
}

var canvasShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Render the session canvas",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		res, err := client.turn(cmd.Context(), http.MethodGet, sessionPath(args[0]), nil)
		if err != nil {
			return err
		}
		writeMarkdown(os.Stdout, res.Canvas, raw)
		return nil
	},
}

var canvasSetCmd = &cobra.Command{
	Use:   "set <session> <file>",
	Short: "Replace the session canvas with a markdown file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if _, err := client.turn(cmd.Context(), http.MethodPut, sessionPath(args[0], "canvas"), map[string]string{"canvas": string(data)}); err != nil {
			return err
		}
		printSuccess("Canvas updated")
		return nil
	},
}

func init() {
	canvasShowCmd.Flags().Bool("raw", false, "print raw markdown")
	canvasCmd.AddCommand(canvasShowCmd)
	canvasCmd.AddCommand(canvasSetCmd)
}

// --- upload ---

var uploadCmd = &cobra.Command{
	Use:   "upload <session> <file>",
	Short: "Upload a resume or document into a session",
	Long: `Upload a PDF, DOCX, HTML, text or image file. Text is extracted in the
background and added to the conversation.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingest.Detect(args[1], "") == ingest.FormatUnknown {
			return fmt.Errorf("unsupported file type: %s", args[1])
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		printStep("Uploading %s (%d bytes)", args[1], len(data))
		resp, err := client.upload(cmd.Context(), sessionPath(args[0], "uploads"), args[1], data)
		if err != nil {
			return err
		}
		var result map[string]any
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Queued upload %v", result["id"])
		return nil
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile <session>",
	Short: "Show what has been extracted from a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), sessionPath(args[0], "profile"))
		if err != nil {
			return err
		}
		var result struct {
			Profile extract.Profile `json:"profile"`
			Summary string          `json:"summary"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		if asJSON {
			return printJSON(os.Stdout, result.Profile)
		}
		fmt.Print(result.Summary)
		if !strings.HasSuffix(result.Summary, "\n") {
			fmt.Println()
		}
		return nil
	},
}

func init() {
	profileCmd.Flags().Bool("json", false, "print the profile as JSON")
}

// --- extract ---

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Run the profile extractor over a local file (no server needed)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		p, err := extractFile(args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(os.Stdout, p)
		}
		fmt.Print(p.Summary())
		return nil
	},
}

func init() {
	extractCmd.Flags().Bool("json", false, "print the profile as JSON")
}

func extractFile(path string) (extract.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Profile{}, fmt.Errorf("reading file: %w", err)
	}
	text, err := ingest.ExtractText(path, "", data)
	if errors.Is(err, ingest.ErrUnsupported) {
		return extract.Profile{}, fmt.Errorf("unsupported file type: %s", path)
	}
	if err != nil {
		return extract.Profile{}, err
	}
	return extract.FromText(text), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
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

		fmt.Printf("# %s\n", config.FilePath())
		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s  (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
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
			if strings.Contains(err.Error(), "unknown config key") {
				printWarning("valid keys: %s", strings.Join(config.ValidKeys(), ", "))
			}
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
