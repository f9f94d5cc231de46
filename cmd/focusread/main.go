// Command focusread keeps bionic-reading emphasis applied to a chat page.
//
// Usage:
//
//	focusread run --url https://claude.ai/new          # launch Chrome and read a tab
//	focusread run --remote ws://... --attach https://claude.ai   # join an open tab
//	focusread process page.html > out.html              # offline, one pass
//	focusread transform "some text"                     # emphasis markup for text
//	focusread settings set --bold-ratio 60              # persist a setting
//	focusread serve                                     # HTTP settings surface + MCP
//	focusread mcp                                       # MCP over stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/bionic/focusread"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "focusread:", err)
		os.Exit(1)
	}
}

// app carries the state resolved by the root command's persistent flags.
type app struct {
	configPath string
	dbPath     string
	logLevel   string

	cfg    *focusread.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "focusread",
		Short:         "Bionic-reading emphasis for chat responses",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to focusread.yaml")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "settings database (overrides settings.db)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.runCmd(),
		a.processCmd(),
		a.transformCmd(),
		a.previewCmd(),
		a.settingsCmd(),
		a.serveCmd(),
		a.mcpCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg := focusread.DefaultConfig()
	if a.configPath != "" {
		var err error
		if cfg, err = focusread.LoadConfigFile(a.configPath); err != nil {
			return err
		}
	}
	if a.dbPath != "" {
		cfg.Settings.DB = a.dbPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	return nil
}

func newLogger(w io.Writer, levelName, format string) *slog.Logger {
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func (a *app) reader(sinks ...focusread.Sink) (*focusread.Reader, error) {
	return focusread.New(a.cfg, a.logger, sinks...)
}

func (a *app) runCmd() *cobra.Command {
	var (
		url, attach, remote string
		headless, serve     bool
		reports, verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Read a live Chrome tab until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			bc := &a.cfg.Browser
			if url != "" {
				bc.URL = url
			}
			if attach != "" {
				bc.Attach = attach
			}
			if remote != "" {
				bc.Remote = remote
			}
			if cmd.Flags().Changed("headless") {
				bc.Headless = headless
			}

			var sinks []focusread.Sink
			if reports && !a.cfg.Report.Stdout {
				sinks = append(sinks, focusread.StdoutSink(os.Stdout, verbose))
			}
			r, err := a.reader(sinks...)
			if err != nil {
				return err
			}
			defer r.Close()

			if a.configPath != "" {
				go func() {
					if err := r.WatchConfig(ctx, a.configPath); err != nil {
						a.logger.Warn("focusread: config watch stopped", "error", err)
					}
				}()
			}
			if serve {
				go a.listen(ctx, r)
			}
			return r.RunBrowser(ctx)
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "page to open")
	cmd.Flags().StringVar(&attach, "attach", "", "URL prefix of an open tab to join")
	cmd.Flags().StringVar(&remote, "remote", "", "WebSocket debugger URL of a running Chrome")
	cmd.Flags().BoolVar(&headless, "headless", false, "launch Chrome headless")
	cmd.Flags().BoolVar(&serve, "serve", false, "also serve the HTTP settings surface")
	cmd.Flags().BoolVar(&reports, "reports", false, "print pass reports as JSON lines")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "include passes that changed nothing")
	return cmd
}

func (a *app) processCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "process [file]",
		Short: "Run one pass over an HTML document (stdin when no file or -)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := io.Reader(os.Stdin)
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			out := io.Writer(os.Stdout)
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			r, err := a.reader()
			if err != nil {
				return err
			}
			defer r.Close()

			rep, err := r.ProcessHTML(cmd.Context(), in, out)
			if err != nil {
				return err
			}
			a.logger.Info("focusread: processed",
				"roots", rep.Roots, "processed", rep.Processed, "replaced", rep.LeavesReplaced)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result here instead of stdout")
	return cmd
}

func (a *app) transformCmd() *cobra.Command {
	var ratio, weight int
	cmd := &cobra.Command{
		Use:   "transform [text...]",
		Short: "Print the emphasis markup for text (stdin when no args)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := textArg(args)
			if err != nil {
				return err
			}
			r, err := a.reader()
			if err != nil {
				return err
			}
			defer r.Close()

			var p focusread.SettingsPatch
			if cmd.Flags().Changed("bold-ratio") {
				p.BoldRatio = &ratio
			}
			if cmd.Flags().Changed("font-weight") {
				p.FontWeight = &weight
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.Transform(cmd.Context(), text, p))
			return nil
		},
	}
	cmd.Flags().IntVar(&ratio, "bold-ratio", 50, "percent of each word to embolden")
	cmd.Flags().IntVar(&weight, "font-weight", 800, "font weight of the emphasis")
	return cmd
}

func (a *app) previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview [text...]",
		Short: "Render the settings preview as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reader()
			if err != nil {
				return err
			}
			defer r.Close()
			return printJSON(cmd.OutOrStdout(), r.Preview(cmd.Context(), strings.Join(args, " "), focusread.SettingsPatch{}))
		},
	}
}

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the persisted reader settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.reader()
			if err != nil {
				return err
			}
			defer r.Close()
			return printJSON(cmd.OutOrStdout(), r.Settings(cmd.Context()))
		},
	}

	var (
		ratio, weight                int
		enabled                      bool
		family                       string
		lineHeight, letterSp, wordSp float64
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update the given settings; others are left unchanged",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p focusread.SettingsPatch
			f := cmd.Flags()
			if f.Changed("bold-ratio") {
				p.BoldRatio = &ratio
			}
			if f.Changed("font-weight") {
				p.FontWeight = &weight
			}
			if f.Changed("enabled") {
				p.Enabled = &enabled
			}
			if f.Changed("font-family") {
				p.FontFamily = &family
			}
			if f.Changed("line-height") {
				p.LineHeight = &lineHeight
			}
			if f.Changed("letter-spacing") {
				p.LetterSpacing = &letterSp
			}
			if f.Changed("word-spacing") {
				p.WordSpacing = &wordSp
			}
			if p.Empty() {
				return errors.New("nothing to set")
			}

			r, err := a.reader()
			if err != nil {
				return err
			}
			defer r.Close()
			s, err := r.UpdateSettings(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), s)
		},
	}
	def := focusread.DefaultSettings()
	set.Flags().IntVar(&ratio, "bold-ratio", def.BoldRatio, "percent of each word to embolden (0-100)")
	set.Flags().IntVar(&weight, "font-weight", def.FontWeight, "font weight of the emphasis (100-900)")
	set.Flags().BoolVar(&enabled, "enabled", def.Enabled, "apply the emphasis transform")
	set.Flags().StringVar(&family, "font-family", def.FontFamily, `font family, or "default"`)
	set.Flags().Float64Var(&lineHeight, "line-height", def.LineHeight, "unitless line height")
	set.Flags().Float64Var(&letterSp, "letter-spacing", def.LetterSpacing, "letter spacing in px")
	set.Flags().Float64Var(&wordSp, "word-spacing", def.WordSpacing, "word spacing in px")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.reader()
			if err != nil {
				return err
			}
			defer r.Close()
			s, err := r.ResetSettings(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), s)
		},
	}

	cmd.AddCommand(show, set, reset)
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP settings surface and MCP over streamable HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			r, err := a.reader()
			if err != nil {
				return err
			}
			defer r.Close()
			return a.listen(cmd.Context(), r)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the focusread tools over MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.reader()
			if err != nil {
				return err
			}
			defer r.Close()
			return newMCPServer(r).Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

func newMCPServer(r *focusread.Reader) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "focusread", Version: version}, nil)
	r.RegisterMCP(srv)
	return srv
}

// listen serves HTTP until ctx is cancelled.
func (a *app) listen(ctx context.Context, r *focusread.Reader) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           r.Handler(newMCPServer(r)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.logger.Info("focusread: http listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		a.logger.Error("focusread: http server", "error", err)
		return err
	}
}

func textArg(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
