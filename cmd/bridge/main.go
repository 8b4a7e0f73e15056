package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/openclaw/bridge/internal/bridge"
	"github.com/openclaw/bridge/internal/config"
	"github.com/openclaw/bridge/internal/history"
	"github.com/openclaw/bridge/internal/provider"
	"github.com/openclaw/bridge/internal/server"
	"github.com/openclaw/bridge/internal/telegram"
)

var (
	version = server.Version
	commit  = "dev"
)

// Styles for command output.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	freeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bridge",
		Short: "OpenClaw bridge - chat channels in, LLM agents out",
		Long: `The OpenClaw bridge connects chat channels to configured LLM agents.
Messages are routed to an agent by keyword, sent to the agent's provider
with recent conversation context, and the reply is delivered back.`,
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to openclaw.json (default ~/.openclaw/openclaw.json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		serveCmd(),
		authCmd(),
		agentsCmd(),
		providersCmd(),
		modelsCmd(),
		validateCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	return config.Path()
}

// ---------------------------------------------------------------------------
// serve command
// ---------------------------------------------------------------------------

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge: Telegram bots plus the local HTTP API",
		Long: `Start every configured Telegram bot and the local HTTP API.
With --token a single ad-hoc bot runs instead of the configured ones.`,
		RunE: runServe,
	}
	cmd.Flags().StringP("token", "t", "", "Run one bot with this Telegram token instead of the configured bots")
	cmd.Flags().StringP("agent", "a", "", "Pin every message to this agent (skips keyword routing)")
	cmd.Flags().StringSliceP("bot", "b", nil, "Run only these configured bots")
	return cmd
}

type botSpec struct {
	name  string
	token string
	agent string
}

func runServe(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)

	watcher := config.NewWatcher(configPath(cmd))
	defer watcher.Close()

	store, err := history.NewStore(config.HistoryDir())
	if err != nil {
		return fmt.Errorf("failed to init history store: %w", err)
	}

	dispatcher := bridge.NewDispatcher(watcher.Current, config.LoadAuthProfiles)

	specs, err := resolveBots(cmd, watcher.Current())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(watcher, store, bridge.NewHandler(store, dispatcher, ""))
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server failed", "error", err)
		}
	}()
	defer srv.Stop()

	if len(specs) == 0 {
		slog.Info("no Telegram bots configured, serving HTTP API only")
	}

	var wg sync.WaitGroup
	for _, spec := range specs {
		handler := bridge.NewHandler(store, dispatcher, spec.agent)
		bot := telegram.NewBot(spec.name, telegram.NewClient(spec.token, ""), handler)

		wg.Add(1)
		go func(spec botSpec) {
			defer wg.Done()
			if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("bot stopped", "bot", spec.name, "error", err)
			}
		}(spec)
	}

	<-ctx.Done()
	slog.Info("shutting down")
	wg.Wait()
	return nil
}

// resolveBots decides which bots to run: the ad-hoc --token bot, the
// --bot selection, or everything in the config.
func resolveBots(cmd *cobra.Command, cfg *config.Config) ([]botSpec, error) {
	token, _ := cmd.Flags().GetString("token")
	forced, _ := cmd.Flags().GetString("agent")
	names, _ := cmd.Flags().GetStringSlice("bot")

	if token != "" {
		return []botSpec{{name: "cli", token: token, agent: forced}}, nil
	}

	if len(names) > 0 {
		specs := make([]botSpec, 0, len(names))
		for _, name := range names {
			bot, ok := cfg.Bot(name)
			if !ok {
				return nil, fmt.Errorf("bot %q is not configured", name)
			}
			specs = append(specs, botSpec{name: name, token: bot.Token, agent: bot.Agent})
		}
		return specs, nil
	}

	var specs []botSpec
	if cfg.Channels.Telegram.BotToken != "" {
		specs = append(specs, botSpec{name: "default", token: cfg.Channels.Telegram.BotToken, agent: forced})
	}
	botNames := make([]string, 0, len(cfg.Channels.Telegram.Bots))
	for name := range cfg.Channels.Telegram.Bots {
		botNames = append(botNames, name)
	}
	sort.Strings(botNames)
	for _, name := range botNames {
		bot := cfg.Channels.Telegram.Bots[name]
		specs = append(specs, botSpec{name: name, token: bot.Token, agent: bot.Agent})
	}
	return specs, nil
}

// ---------------------------------------------------------------------------
// auth command
// ---------------------------------------------------------------------------

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"login"},
		Short:   "Manage stored API credentials",
	}

	loginCmd := &cobra.Command{
		Use:   "login <provider>",
		Short: "Store an API key for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]
			desc, ok := provider.Lookup(tag)
			if !ok {
				return fmt.Errorf("unknown provider %q, see 'bridge providers'", tag)
			}
			if !provider.NeedsCredential(tag) {
				fmt.Println(dimStyle.Render("ollama runs locally and needs no key"))
				return nil
			}

			owner, _ := cmd.Flags().GetString("agent")

			fmt.Println(titleStyle.Render(desc.Label))
			fmt.Println(dimStyle.Render("Get a key at " + desc.KeyURL))
			fmt.Printf("API key: ")
			keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("failed to read key: %w", err)
			}
			key := strings.TrimSpace(string(keyBytes))
			if key == "" {
				return fmt.Errorf("no key entered")
			}

			result, err := provider.ValidateKey(cmd.Context(), tag, key)
			if err != nil {
				fmt.Println(warnStyle.Render("Could not verify the key: " + err.Error()))
			} else if !result.Valid {
				fmt.Println(warnStyle.Render("Key looks invalid: " + result.Detail))
			} else if result.Checked {
				fmt.Println(freeStyle.Render("Key verified. " + result.Detail))
			}

			store := config.LoadAuthProfiles()
			store.Set(tag, owner, config.Profile{Type: "api_key", Provider: tag, Key: key})
			if err := store.Save(config.AuthProfilesPath()); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}
			fmt.Printf("Saved %s\n", config.ProfileKey(tag, owner))
			return nil
		},
	}
	loginCmd.Flags().StringP("agent", "a", config.DefaultAgentKey, "Agent this key belongs to")

	logoutCmd := &cobra.Command{
		Use:   "logout <provider>",
		Short: "Remove a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("agent")
			key := config.ProfileKey(args[0], owner)

			store := config.LoadAuthProfiles()
			if _, ok := store.Profiles[key]; !ok {
				return fmt.Errorf("no credential stored under %q", key)
			}
			delete(store.Profiles, key)
			if err := store.Save(config.AuthProfilesPath()); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}
			fmt.Printf("Removed %s\n", key)
			return nil
		},
	}
	logoutCmd.Flags().StringP("agent", "a", config.DefaultAgentKey, "Agent the key belongs to")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := config.LoadAuthProfiles()
			if len(store.Profiles) == 0 {
				fmt.Println(dimStyle.Render("No credentials stored. Run 'bridge auth login <provider>'."))
				return nil
			}

			keys := make([]string, 0, len(store.Profiles))
			for k := range store.Profiles {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			fmt.Println(titleStyle.Render("Stored credentials"))
			for _, k := range keys {
				fmt.Printf("  %s  %s\n", k, dimStyle.Render(maskKey(store.Profiles[k].Secret())))
			}
			return nil
		},
	}

	cmd.AddCommand(loginCmd, logoutCmd, listCmd)
	return cmd
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:6] + "..." + key[len(key)-2:]
}

// ---------------------------------------------------------------------------
// listing commands
// ---------------------------------------------------------------------------

func agentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List configured agents and their models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadFrom(configPath(cmd))

			names := cfg.AgentNames()
			if len(names) == 0 {
				fmt.Println(dimStyle.Render("No agents configured. Every message goes to the defaults model."))
			}

			fmt.Println(titleStyle.Render("Agents"))
			for _, name := range names {
				model := cfg.ModelFor(name)
				tag := provider.Detect(model)
				fmt.Printf("  %-12s %s %s\n", name, model, dimStyle.Render("("+tag+")"))
			}
			fmt.Printf("  %-12s %s %s\n", config.DefaultAgentKey,
				cfg.ModelFor(config.DefaultAgentKey), dimStyle.Render("(fallback)"))
			return nil
		},
	}
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := config.LoadAuthProfiles()

			fmt.Println(titleStyle.Render("Providers"))
			for _, d := range provider.Descriptors() {
				status := dimStyle.Render("no key")
				if !provider.NeedsCredential(d.Tag) {
					status = freeStyle.Render("local")
				} else if _, err := store.Resolve(config.DefaultAgentKey, d.Tag); err == nil {
					status = freeStyle.Render("key stored")
				}
				fmt.Printf("  %-12s %-18s %s\n", d.Tag, d.Label, status)
				fmt.Printf("  %s\n", dimStyle.Render("             "+d.KeyURL))
			}
			return nil
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models [provider]",
		Short: "List the model catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors := provider.Descriptors()
			if len(args) == 1 {
				d, ok := provider.Lookup(args[0])
				if !ok {
					return fmt.Errorf("unknown provider %q", args[0])
				}
				descriptors = []provider.Descriptor{d}
			}

			for _, d := range descriptors {
				fmt.Println(titleStyle.Render(d.Label))
				for _, m := range d.Models {
					if provider.IsFreeModel(m) {
						fmt.Printf("  %s %s\n", strings.TrimSuffix(m, provider.FreeMarker), freeStyle.Render("free"))
					} else {
						fmt.Printf("  %s\n", m)
					}
				}
			}
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <provider>",
		Short: "Check the stored API key against the provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]
			owner, _ := cmd.Flags().GetString("agent")

			key := ""
			if provider.NeedsCredential(tag) {
				var err error
				key, err = config.LoadAuthProfiles().Resolve(owner, tag)
				if err != nil {
					return fmt.Errorf("no stored key for %q, run 'bridge auth login %s'", tag, tag)
				}
			}

			result, err := provider.ValidateKey(cmd.Context(), tag, key)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			switch {
			case result.Valid && result.Checked:
				fmt.Println(freeStyle.Render("Key is valid. " + result.Detail))
			case result.Valid:
				fmt.Println(dimStyle.Render("Key format accepted (not verified live). " + result.Detail))
			default:
				fmt.Println(warnStyle.Render("Key rejected: " + result.Detail))
			}
			return nil
		},
	}
	cmd.Flags().StringP("agent", "a", config.DefaultAgentKey, "Resolve the key as this agent")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("openclaw-bridge %s (%s)\n", version, commit)
		},
	}
}
