// Command gymwrap runs a uniformly random policy in Gym environments
// built with the gymwrap packages, and reports the episode returns.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/samuelfneumann/gymwrap"
	"github.com/samuelfneumann/gymwrap/environments"
	"github.com/samuelfneumann/gymwrap/internal/config"
	"github.com/samuelfneumann/gymwrap/internal/logging"
	"github.com/samuelfneumann/gymwrap/internal/rollout"
	"github.com/samuelfneumann/gymwrap/pygym"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gymwrap",
		Short: "gymwrap drives OpenAI Gym environments from Go",
	}
	rootCmd.AddCommand(newRunCmd())

	for _, envFile := range []string{
		".env",
		"../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a random policy and report episode returns",
		Long: "Run a uniformly random policy for a number of steps in one " +
			"or more copies of a Gym environment. Settings are read from " +
			"flags, GYMWRAP_* environment variables and an optional YAML " +
			"file, in that order of precedence.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), c, environments.PythonMaker)
		},
	}

	d := config.Default()
	flags := runCmd.Flags()
	flags.StringVar(&configFile, "config", "", "YAML config file")
	flags.String("env", d.Env, "Gym environment name")
	flags.Bool("atari", d.Atari, "apply Atari preprocessing and frame stacking")
	flags.Int("height", d.Height, "processed frame height")
	flags.Int("width", d.Width, "processed frame width")
	flags.String("interpolation", d.Interpolation,
		"frame resampling: nearest, approx-bilinear, bilinear or catmull-rom")
	flags.Bool("scale", d.Scale, "scale processed frames to [0, 1]")
	flags.Int("frame-skip", d.FrameSkip, "environment steps per agent step")
	flags.Int("noop-max", d.NoopMax, "largest number of no-ops after reset")
	flags.Bool("terminal-on-life-loss", d.TerminalOnLifeLoss,
		"end episodes when a life is lost")
	flags.Int("stack", d.Stack, "number of stacked frames")
	flags.Int("num-envs", d.NumEnvs, "number of environment copies")
	flags.Bool("parallel", d.Parallel, "step environment copies concurrently")
	flags.Int("steps", d.Steps, "number of steps to take")
	flags.Int("seed", d.Seed, "seed, negative to leave seeding to gym")
	flags.String("log-level", d.LogLevel, "log level")
	flags.String("log-file", d.LogFile, "also write JSON logs to this file")
	flags.Bool("development", d.Development, "human readable logs")
	flags.String("plot", d.Plot, "save a plot of episode returns to this file")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	return runCmd
}

// run builds the environments described by c with maker and runs a
// random policy in them
func run(ctx context.Context, c config.Config,
	maker environments.Maker) error {
	logger, err := logging.New(logging.Options{
		Level:       c.LogLevel,
		Development: c.Development,
		File:        c.LogFile,
	})
	if err != nil {
		return err
	}
	defer logging.Sync(logger)
	defer pygym.Finalize()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	env, err := buildEnv(c, maker, logger)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer env.Close()

	res, err := rollout.Run(ctx, env, c.Steps, c.Seed, logger)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	fmt.Printf("run %v: %v steps, %v episodes, mean return %.3f\n",
		res.RunID, res.Steps, len(res.Returns), res.MeanReturn())

	if c.Plot != "" {
		if err := rollout.SavePlot(res, c.Env, c.Plot); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		logger.Info("saved return plot", zap.String("path", c.Plot))
	}
	return nil
}

// buildEnv makes c.NumEnvs copies of the environment c.Env with maker,
// each wrapped as c describes
func buildEnv(c config.Config, maker environments.Maker,
	logger *zap.Logger) (*gymwrap.VecEnv, error) {
	return environments.NewVec(func() (gymwrap.Environment, error) {
		env, err := maker(c.Env, logger)
		if err != nil {
			return nil, err
		}

		var wrapped *gymwrap.GymWrapper
		if c.Atari {
			wrapped, err = environments.WrapAtari(env, c.AtariConfig(),
				c.Stack, logger)
		} else {
			wrapped, err = environments.Wrap(env, logger)
		}
		if err != nil {
			env.Close()
			return nil, err
		}
		return wrapped, nil
	}, c.NumEnvs, c.Parallel, logger)
}
