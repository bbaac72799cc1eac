package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Matthew-123-dev/simpomni-bot/bot"
	"github.com/Matthew-123-dev/simpomni-bot/internal/commands"
	"github.com/Matthew-123-dev/simpomni-bot/internal/config"
	"github.com/Matthew-123-dev/simpomni-bot/internal/health"
	"github.com/Matthew-123-dev/simpomni-bot/internal/logger"
	"github.com/Matthew-123-dev/simpomni-bot/internal/mcpbridge"
	"github.com/Matthew-123-dev/simpomni-bot/internal/opsserver"
	"github.com/Matthew-123-dev/simpomni-bot/internal/reminders"
	"github.com/Matthew-123-dev/simpomni-bot/internal/shardqueue"
	"github.com/Matthew-123-dev/simpomni-bot/internal/telegram"
	"github.com/Matthew-123-dev/simpomni-bot/internal/weather"
)

const (
	serviceName = "simpomni-bot"
	version     = "0.1.0"
	// localChatID identifies the pseudo chat used by exec and mcp.
	localChatID = 1
)

type app struct {
	envFile  string
	logLevel string
	console  bool

	cfg *config.Config
	log zerolog.Logger
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Telegram bot for weather, reminders, tasks, facts and arithmetic",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Optional dotenv file loaded before the environment")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: trace|debug|info|warn|error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&a.console, "console", false, "Human-readable logs")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newExecCmd(a))
	rootCmd.AddCommand(newCommandsCmd(a))
	rootCmd.AddCommand(newMCPCmd(a))
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}

	switch {
	case a.console:
		a.log = logger.Console(serviceName)
	case cmd.Name() == "mcp":
		// stdout carries the MCP protocol.
		a.log = logger.NewWithWriter(serviceName, os.Stderr)
	default:
		a.log = logger.NewWithWriter(serviceName, cmd.ErrOrStderr())
	}
	logger.Install(a.log, logger.ParseLevel(level))
	return nil
}

func (a *app) weatherClient() *weather.Client {
	return weather.New(a.cfg.WeatherBaseURL, a.cfg.WeatherAPIKey, a.cfg.HTTPTimeout, a.log)
}

func (a *app) scheduler(n reminders.Notifier) (*reminders.Scheduler, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	return reminders.NewScheduler(n, reminders.WithLocation(loc), reminders.WithLogger(a.log)), nil
}

// localRegistry builds the registry for exec and mcp. Fired reminders are
// written to the log since there is no chat to deliver them to.
func (a *app) localRegistry() (*commands.Registry, *reminders.Scheduler, error) {
	sched, err := a.scheduler(reminders.NotifierFunc(func(_ context.Context, chatID int64, text string) error {
		a.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("reminder fired")
		return nil
	}))
	if err != nil {
		return nil, nil, err
	}
	reg, err := bot.NewRegistry(bot.Deps{Weather: a.weatherClient(), Scheduler: sched})
	if err != nil {
		sched.Stop()
		return nil, nil, err
	}
	return reg, sched, nil
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot against the Telegram Bot API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireToken(); err != nil {
				return err
			}
			a.cfg.LogSummary(a.log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	api := telegram.New(a.cfg.TelegramBaseURL, a.cfg.Token,
		telegram.WithHTTPClient(newHTTPClient(a.cfg.PollTimeout)),
		telegram.WithDebug(a.cfg.Debug || telegram.DebugRequested()),
	)

	sqCfg, err := shardqueue.LoadConfig()
	if err != nil {
		return fmt.Errorf("shard queue config: %w", err)
	}
	sqCfg.ErrorHandler = bot.ErrorHandler(a.log)
	exec := shardqueue.NewShardExecutor(sqCfg)

	sched, err := a.scheduler(bot.NewNotifier(exec, api))
	if err != nil {
		exec.Stop()
		return err
	}
	reg, err := bot.NewRegistry(bot.Deps{Weather: a.weatherClient(), Scheduler: sched})
	if err != nil {
		sched.Stop()
		exec.Stop()
		return err
	}

	heartbeat := health.NewHeartbeat("poller", 3*a.cfg.PollTimeout)
	svcHealth := health.NewServiceHealthChecker(a.log,
		heartbeat,
		health.NewPingChecker("telegram", api, a.cfg.HTTPTimeout, a.log),
	)

	router := bot.NewRouter(reg, api, a.cfg.BotUsername, a.log)
	b := bot.New(api, router, exec, bot.Options{
		PollTimeout: a.cfg.PollTimeout,
		Heartbeat:   heartbeat,
		OnShutdown:  []func(){sched.Stop},
	}, a.log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		svcHealth.Start(gctx, time.Minute)
		return nil
	})
	if a.cfg.OpsAddr != "" {
		g.Go(func() error {
			return opsserver.Serve(gctx, a.cfg.OpsAddr, opsserver.NewRouter(svcHealth, nil), a.log)
		})
	}
	g.Go(func() error {
		err := b.Run(gctx)
		if err == nil && ctx.Err() == nil {
			err = fmt.Errorf("poll loop exited")
		}
		return err
	})
	return g.Wait()
}

func newExecCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <command> [args...]",
		Short: "Run one command locally and print its replies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, sched, err := a.localRegistry()
			if err != nil {
				return err
			}
			defer sched.Stop()

			name := commands.Normalize(args[0])
			out := &commands.Collector{}
			req := commands.Request{
				ChatID:   localChatID,
				ChatType: telegram.ChatPrivate,
				Args:     args[1:],
				Text:     "/" + strings.Join(args, " "),
			}
			if err := reg.Dispatch(cmd.Context(), name, req, out); err != nil {
				return err
			}
			return printReplies(cmd.OutOrStdout(), out.Texts())
		},
	}
	// Everything after the command name belongs to it, including "-3*2".
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newCommandsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the registered chat commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, sched, err := a.localRegistry()
			if err != nil {
				return err
			}
			defer sched.Stop()
			_, err = io.WriteString(cmd.OutOrStdout(), reg.Listing())
			return err
		},
	}
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve every chat command as an MCP tool over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, sched, err := a.localRegistry()
			if err != nil {
				return err
			}
			defer sched.Stop()

			s, err := mcpbridge.NewServer(serviceName, version, mcpbridge.New(reg, localChatID))
			if err != nil {
				return err
			}
			a.log.Info().Int("tools", len(reg.Commands())).Msg("starting MCP server (stdio transport)")
			return mcpbridge.ServeStdio(s)
		},
	}
}

func printReplies(w io.Writer, texts []string) error {
	for _, t := range texts {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}
