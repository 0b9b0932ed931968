package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/jorge-barreto/colossus/internal/config"
	"github.com/jorge-barreto/colossus/internal/control"
	"github.com/jorge-barreto/colossus/internal/dispatch"
	"github.com/jorge-barreto/colossus/internal/docs"
	"github.com/jorge-barreto/colossus/internal/doctor"
	"github.com/jorge-barreto/colossus/internal/mcpserver"
	"github.com/jorge-barreto/colossus/internal/mode"
	"github.com/jorge-barreto/colossus/internal/runner"
	"github.com/jorge-barreto/colossus/internal/scaffold"
	"github.com/jorge-barreto/colossus/internal/stage"
	"github.com/jorge-barreto/colossus/internal/state"
	"github.com/jorge-barreto/colossus/internal/ux"
	cli "github.com/urfave/cli/v3"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultListen = "127.0.0.1:49999"

func main() {
	mcpserver.Version = version
	app := &cli.Command{
		Name:        "colossus",
		Usage:       "Turn a conversation into a project",
		Version:     version,
		Description: "Run 'colossus docs' for documentation on configuration, stages, modes and the HTTP API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project-dir", Aliases: []string{"d"}, Usage: "project directory (default: current directory)"},
			&cli.StringFlag{Name: "listen", Value: defaultListen, Usage: "HTTP control address, empty to disable"},
			&cli.StringFlag{Name: "model", Aliases: []string{"c"}, Usage: "model passed to the code agent"},
			&cli.BoolFlag{Name: "verbose", Usage: "debug logging and agent output on the console"},
		},
		Commands: []*cli.Command{
			serveCmd(),
			initCmd(),
			statusCmd(),
			modeCmd(),
			doctorCmd(),
			mcpCmd(),
			docsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ux.Red("error:"), err)
		os.Exit(1)
	}
}

func projectDir(cmd *cli.Command) (string, error) {
	dir := cmd.String("project-dir")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	return filepath.Abs(dir)
}

func loadConfig(cmd *cli.Command, dir string) (*config.Config, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if m := cmd.String("model"); m != "" {
		cfg.Model = m
	}
	return cfg, nil
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the stage loops and the HTTP control API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			if err := doctor.RequireGit(dir); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, dir)
			if err != nil {
				return err
			}

			ws := state.New(dir, config.Dir)
			if err := ws.EnsureDir(); err != nil {
				return err
			}
			lock := flock.New(ws.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquiring serve lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("colossus serve is already running for %s", dir)
			}
			defer lock.Unlock()

			logFile, err := os.OpenFile(ws.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("opening log: %w", err)
			}
			defer logFile.Close()
			level := slog.LevelInfo
			if cmd.Bool("verbose") {
				level = slog.LevelDebug
			}
			log := slog.New(ux.Fanout{
				ux.NewConsoleHandler(os.Stderr, level),
				slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}),
			})

			if err := dispatch.Preflight(cfg); err != nil {
				log.Warn(err.Error())
			}

			dotenv, err := dispatch.LoadDotEnv(dir)
			if err != nil {
				log.Warn("ignoring .env", "err", err)
			}
			env := &dispatch.Environment{ProjectDir: dir, Workspace: ws, DotEnv: dotenv}
			agent := dispatch.NewAider(cfg, env)
			build := dispatch.NewMake(cfg, env)
			if cmd.Bool("verbose") {
				agent.Echo = os.Stdout
				build.Echo = os.Stdout
			}

			listen := cmd.String("listen")
			example := agent.CommandLine(dispatch.Invocation{
				Dir:         dir,
				Instruction: "<instruction>",
				Files:       []string{cfg.Artifacts.Requirements},
				Load:        cfg.Agent.Load,
				Model:       cfg.Model,
			})
			ux.Banner(os.Stdout, ux.BannerInfo{
				Version:    version,
				Listen:     listen,
				Model:      cfg.Model,
				ProjectDir: dir,
				Command:    append([]string{agent.Command}, example...),
			})

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			m := mode.NewState()
			sd := &mode.Shutdown{}
			syncer := &control.Syncer{
				File:  control.NewModeFile(ws.ModePath()),
				State: m,
				Poll:  cfg.ModePoll.Std(),
				Log:   log,
			}
			if err := syncer.Prime(); err != nil {
				return err
			}
			go syncer.Run(ctx)

			serverDone := make(chan error, 1)
			if listen != "" {
				ln, err := net.Listen("tcp", listen)
				if err != nil {
					return fmt.Errorf("listening on %s: %w", listen, err)
				}
				srv := &control.Server{
					ProjectDir: dir,
					Transcript: cfg.Artifacts.Transcript,
					Model:      cfg.Model,
					Mode:       m,
					Agent:      agent,
					Log:        log,
				}
				go func() { serverDone <- srv.Serve(ctx, ln) }()
			} else {
				serverDone <- nil
			}

			log.Info("started", "mode", m.Get().String(), "project_dir", dir)
			runner.New(cfg, dir, agent, build, m, sd, ws, log).Run(ctx)
			stop()

			if err := <-serverDone; err != nil {
				log.Error("control API stopped", "error", err)
			}
			log.Info("stopped")
			return nil
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize .colossus/ with a commented config",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			return scaffold.Init(dir, os.Stdout)
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the mode, artifact freshness and recent feedback",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, dir)
			if err != nil {
				return err
			}
			ws := state.New(dir, config.Dir)

			modeName := "unknown"
			if snap, err := control.NewModeFile(ws.ModePath()).Read(); err == nil {
				modeName = snap.Raw
			}
			fb, err := ws.ReadFeedback()
			if err != nil {
				return err
			}
			ux.RenderStatus(os.Stdout, modeName, stage.Statuses(cfg, dir), fb)
			return nil
		},
	}
}

func modeCmd() *cli.Command {
	return &cli.Command{
		Name:      "mode",
		Usage:     "Print the activity mode, or request planning or developing",
		ArgsUsage: "[planning|developing]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			ws := state.New(dir, config.Dir)
			mf := control.NewModeFile(ws.ModePath())

			name := cmd.Args().First()
			if name == "" {
				snap, err := mf.Read()
				if errors.Is(err, fs.ErrNotExist) {
					fmt.Println(mode.Planning.String())
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Println(snap.Raw)
				return nil
			}

			if err := ws.EnsureDir(); err != nil {
				return err
			}
			m, err := mf.Request(name)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", ux.Green("✓ Requested mode"), ux.Bold(m.String()))
			return nil
		},
	}
}

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Check that the project is ready and explain an escalation",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			r := doctor.Diagnose(dir)
			r.Print(os.Stdout)
			if r.Failed() {
				return fmt.Errorf("doctor found problems")
			}
			return nil
		},
	}
}

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the MCP tools over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, dir)
			if err != nil {
				return err
			}
			return mcpserver.Serve(&mcpserver.Project{Dir: dir, Config: cfg})
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Print("\nAvailable topics:\n\n")
				for _, t := range docs.All() {
					fmt.Printf("  %-14s %s\n", t.Name, t.Summary)
				}
				fmt.Println("\nRun 'colossus docs <topic>' to read a topic.")
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}
