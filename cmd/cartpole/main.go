// Command cartpole trains a tabular Q-learning agent to balance a pole on a
// cart, plots its convergence and replays the learned policy.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/CodeStranger-Fred/cartpole/cartpole"
	"github.com/CodeStranger-Fred/cartpole/chart"
	"github.com/CodeStranger-Fred/cartpole/config"
	"github.com/CodeStranger-Fred/cartpole/mdp"
	"github.com/CodeStranger-Fred/cartpole/trainer"
)

type options struct {
	configPath string
	modelPath  string
	logLevel   string
	seed       int64
	episodes   int
	figures    string
	render     bool
	noSimulate bool
	serve      string
	strategy   trainer.Strategy
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, aurora.Red(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{strategy: trainer.LoadAndApply}
	root := &cobra.Command{
		Use:           "cartpole",
		Short:         "Tabular Q-learning on the cart-pole balancing task",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", config.DefaultPath, "parameter file (JSON)")
	pf.StringVar(&o.modelPath, "model", "./models/Q_table.npy", "value table file")
	pf.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	pf.Int64Var(&o.seed, "seed", 0, "random seed, overrides SEED")
	pf.BoolVar(&o.render, "render", false, "draw every simulated step")

	train := &cobra.Command{
		Use:   "train",
		Short: "Train, plot the rewards, save the table and replay the trained policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrain(cmd, o)
		},
	}
	train.Flags().IntVar(&o.episodes, "episodes", 0, "training episodes, overrides NUMBER_OF_EPOCH")
	train.Flags().StringVar(&o.figures, "figures", "./fig/", "directory for convergence charts")
	train.Flags().BoolVar(&o.noSimulate, "no-simulate", false, "skip the replay after training")
	train.Flags().StringVar(&o.serve, "serve", "", "serve the charts on this address after training, e.g. localhost:8089")

	simulate := &cobra.Command{
		Use:   "simulate",
		Short: "Play one episode with the chosen strategy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, o)
		},
	}
	simulate.Flags().Var(&o.strategy, "strategy", "random, trained, load_and_apply or train_and_apply")

	root.AddCommand(train, simulate)
	return root
}

func setup(cmd *cobra.Command, o *options) (*trainer.Trainer, config.Parameters, *slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, config.Parameters{}, nil, fmt.Errorf("log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	p, found, err := config.Load(o.configPath)
	if err != nil {
		return nil, p, nil, err
	}
	if !found {
		logger.Warn("parameter file not found, using defaults", "path", o.configPath)
	}
	if cmd.Flags().Changed("seed") {
		p.Seed = o.seed
	}
	if f := cmd.Flags().Lookup("episodes"); f != nil && f.Changed {
		p.Episodes = o.episodes
	}

	tr, err := trainer.Build(p, cartpole.NewEnv(p.Seed), logger)
	if err != nil {
		return nil, p, nil, err
	}
	return tr, p, logger, nil
}

func frames(o *options) trainer.FrameFunc {
	if !o.render {
		return nil
	}
	r := cartpole.Renderer{W: os.Stdout}
	return func(obs mdp.Observation, step int) { r.Render(obs, step) }
}

func runTrain(cmd *cobra.Command, o *options) error {
	tr, p, logger, err := setup(cmd, o)
	if err != nil {
		return err
	}
	fmt.Println(aurora.Cyan("Training model."))
	rewards := tr.Train()

	paths, err := chart.Write(o.figures, rewards, p.Episodes)
	if err != nil {
		logger.Warn("no convergence chart written", "err", err)
	} else {
		logger.Info("convergence charts written", "files", paths)
	}

	if err := os.MkdirAll(filepath.Dir(o.modelPath), 0o755); err != nil {
		return err
	}
	if err := tr.Agent().Save(o.modelPath); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", aurora.Green("Q-table saved to"), o.modelPath)

	if !o.noSimulate {
		fmt.Println(aurora.Cyan("Applying already trained model."))
		total, err := tr.Simulate(trainer.Trained, o.modelPath, frames(o))
		if err != nil {
			return err
		}
		fmt.Printf("%s %v\n", aurora.Green("Total reward:"), total)
	}

	if o.serve != "" {
		return chart.Serve(o.figures, o.serve, logger)
	}
	return nil
}

func runSimulate(cmd *cobra.Command, o *options) error {
	tr, _, _, err := setup(cmd, o)
	if err != nil {
		return err
	}
	if o.strategy == trainer.TrainAndApply {
		if err := os.MkdirAll(filepath.Dir(o.modelPath), 0o755); err != nil {
			return err
		}
	}
	fmt.Printf("%s %s\n", aurora.Cyan("Applying strategy"), o.strategy)
	total, err := tr.Simulate(o.strategy, o.modelPath, frames(o))
	if err != nil {
		return err
	}
	fmt.Printf("%s %v\n", aurora.Green("Total reward:"), total)
	return nil
}
