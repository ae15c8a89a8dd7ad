package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kamusis/skills-sync/internal/config"
	"github.com/kamusis/skills-sync/internal/logger"
	"github.com/kamusis/skills-sync/internal/presenter"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	server     string
	timeout    time.Duration
	logLevel   string
	logFormat  string
	quiet      bool
}

// app is the resolved per-invocation state handed to each command.
type app struct {
	cfg  *config.Config
	home string
	out  presenter.Presenter
	log  *logrus.Entry
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "skills-sync",
		Short:         "Move AI agent skills between machines with a one-time code",
		SilenceUsage:  true, // don't print usage on operational errors
		SilenceErrors: true,
		Version:       version,
		Long: `skills-sync collects every skill directory (a directory holding a SKILL.md)
under ~/.claude/skills and ~/.codex/skills, uploads them as one archive and
prints a business code. Running "skills-sync download -c <code>" on another
machine restores the same layout there.`,
	}
	root.SetVersionTemplate("skills-sync {{.Version}}\n")
	root.Flags().BoolP("version", "V", false, "Print version and exit")

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Config file (default ~/.skills-sync/config.yaml)")
	pf.StringVarP(&g.server, "server", "s", "", "Sync server base URL (default from config)")
	pf.DurationVar(&g.timeout, "timeout", 0, "Network timeout (default from config, 2m)")
	pf.StringVar(&g.logLevel, "log-level", "warn", "Diagnostic log level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "fmt", "Diagnostic log format (fmt or json)")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "Only print errors and results")

	root.AddCommand(
		newUploadCmd(g),
		newDownloadCmd(g),
		newListCmd(g),
		newInspectCmd(g),
		newInitCmd(g),
		newDoctorCmd(g),
		newVersionCmd(),
	)
	return root
}

// load resolves logging, config (file, env, flags) and the presenter.
func (g *globalOptions) load(cmd *cobra.Command) (*app, error) {
	level := g.logLevel
	if !cmd.Flags().Changed("log-level") {
		if v, _ := config.GetConfigValue("SKILLS_SYNC_LOG_LEVEL"); v != "" {
			level = v
		}
	}
	if err := logger.SetLogLevel(level); err != nil {
		return nil, syncerr.InvalidInput("--log-level", err)
	}
	logger.SetLogFormat(g.logFormat)
	logger.SetLogOutput(cmd.ErrOrStderr())

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, syncerr.IO("locate home", "~", err)
	}
	p := g.configPath
	if p == "" {
		if p, err = config.Path(); err != nil {
			return nil, syncerr.IO("locate config", "~/.skills-sync", err)
		}
	}
	cfg, err := config.Load(p, home)
	if err != nil {
		return nil, syncerr.InvalidInput("config", err)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, syncerr.InvalidInput("environment", err)
	}
	if cmd.Flags().Changed("server") {
		cfg.Server = g.server
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = g.timeout
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = config.DefaultTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, syncerr.InvalidInput("config", err)
	}

	out := presenter.NewWithOptions(cmd.OutOrStdout(), cmd.ErrOrStderr(), presenter.DetectColorMode())
	out.SetQuiet(g.quiet)

	log := logger.L.WithField("command", cmd.Name())
	log.WithField("config", p).WithField("server", cfg.Server).Debug("configuration loaded")
	return &app{cfg: cfg, home: home, out: out, log: log}, nil
}

// context returns a command context carrying the app logger.
func (a *app) context(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.WithLogger(ctx, a.log)
}

// Execute is called by main.go.
func Execute() {
	os.Exit(run(newRootCmd(), os.Args[1:]))
}

// run executes root with args and maps the outcome to an exit code.
func run(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		out := presenter.NewWithOptions(root.OutOrStdout(), root.ErrOrStderr(), presenter.DetectColorMode())
		out.Error(fmt.Sprintf("%s: %v", syncerr.KindOf(err).Title(), err))
		return 1
	}
	return 0
}
