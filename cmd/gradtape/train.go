package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/envconfig"
	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/optim"
	"github.com/born-ml/gradtape/internal/serialization"
	"github.com/born-ml/gradtape/internal/tensor"
)

// trainOptions configures the demo regression.
type trainOptions struct {
	Steps     int
	LR        float64
	Momentum  float64
	Optimizer string
	Seq       int
	Dim       int
	Heads     int
	RMSNorm   bool
	Seed      uint64
	LogEvery  int

	Resume     string // checkpoint directory to start from
	Checkpoint string // checkpoint directory to write after the last step
}

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a transformer block to a fixed regression target",
		Args:  cobra.NoArgs,
		RunE:  TrainHandler,
	}
	cmd.Flags().Int("steps", 100, "Number of optimization steps")
	cmd.Flags().Float64("lr", 0.05, "Learning rate")
	cmd.Flags().Float64("momentum", 0.9, "SGD momentum")
	cmd.Flags().String("optimizer", "sgd", "Optimizer (sgd or adam)")
	cmd.Flags().Int("seq", 4, "Sequence length")
	cmd.Flags().Int("dim", 8, "Embedding dimension")
	cmd.Flags().Int("heads", 2, "Attention heads")
	cmd.Flags().Bool("rmsnorm", false, "Use RMSNorm instead of LayerNorm")
	cmd.Flags().Uint64("seed", 0, "Initialization seed (default $GRADTAPE_SEED or 1)")
	cmd.Flags().Int("log-every", 10, "Log the loss every N steps")
	cmd.Flags().String("resume", "", "Load parameters from this checkpoint directory first")
	cmd.Flags().String("checkpoint", "", "Save parameters to this directory when done")
	return cmd
}

// TrainHandler parses flags and runs the training loop.
func TrainHandler(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	opts := trainOptions{Seed: envconfig.Seed()}
	opts.Steps, _ = f.GetInt("steps")
	opts.LR, _ = f.GetFloat64("lr")
	opts.Momentum, _ = f.GetFloat64("momentum")
	opts.Optimizer, _ = f.GetString("optimizer")
	opts.Seq, _ = f.GetInt("seq")
	opts.Dim, _ = f.GetInt("dim")
	opts.Heads, _ = f.GetInt("heads")
	opts.RMSNorm, _ = f.GetBool("rmsnorm")
	opts.LogEvery, _ = f.GetInt("log-every")
	opts.Resume, _ = f.GetString("resume")
	opts.Checkpoint, _ = f.GetString("checkpoint")
	if f.Changed("seed") {
		opts.Seed, _ = f.GetUint64("seed")
	}

	losses, err := train(opts)
	if err != nil {
		return err
	}
	return printLosses(cmd.OutOrStdout(), losses)
}

// train fits one post-norm transformer block to a fixed target and returns
// the loss before every step.
func train(opts trainOptions) ([]float64, error) {
	if opts.Steps <= 0 || opts.Seq <= 0 {
		return nil, fmt.Errorf("train: steps and seq must be positive")
	}
	init := nn.NewInitializer(int64(opts.Seed)) //nolint:gosec // seed only

	block, err := nn.NewTransformerBlock[float64](nn.TransformerConfig{
		EmbedDim:   opts.Dim,
		NumHeads:   opts.Heads,
		FFNDim:     4 * opts.Dim,
		UseRMSNorm: opts.RMSNorm,
		NormEps:    1e-5,
	}, init)
	if err != nil {
		return nil, err
	}

	var startStep int64
	if opts.Resume != "" {
		h, err := serialization.Load(opts.Resume, block.Parameters())
		if err != nil {
			return nil, err
		}
		if h.Checkpoint != nil {
			startStep = h.Checkpoint.Step
		}
		klog.InfoS("Resumed from checkpoint", "dir", opts.Resume, "step", startStep)
	}

	shape := tensor.Shape{opts.Seq, opts.Dim}
	x := nn.Xavier[float64](init, opts.Seq, opts.Dim, shape)
	target := nn.Xavier[float64](init, opts.Seq, opts.Dim, shape)

	var opt optim.Optimizer[float64]
	switch opts.Optimizer {
	case "sgd":
		opt = optim.NewSGD(block.Parameters(), optim.SGDConfig{LR: opts.LR, Momentum: opts.Momentum})
	case "adam":
		opt = optim.NewAdam(block.Parameters(), optim.AdamConfig{LR: opts.LR})
	default:
		return nil, fmt.Errorf("train: unknown optimizer %q", opts.Optimizer)
	}

	klog.InfoS("Training", "params", nn.NumParameters[float64](block), "steps", opts.Steps, "optimizer", opts.Optimizer)
	lossFn := nn.NewMSELoss[float64]()
	losses := make([]float64, 0, opts.Steps)
	for step := range opts.Steps {
		out, err := block.Forward(x.Trace())
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}
		loss, err := lossFn.Forward(out, target)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}
		losses = append(losses, loss.Item())

		grads, err := autodiff.Backward(loss)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}
		opt.Step(grads)

		if opts.LogEvery > 0 && step%opts.LogEvery == 0 {
			klog.InfoS("Step", "step", step, "loss", loss.Item())
		}
	}

	if opts.Checkpoint != "" {
		_, err := serialization.Save(opts.Checkpoint, block.Parameters(), serialization.SaveOptions{
			ModelType: "TransformerBlock",
			Checkpoint: &serialization.CheckpointMeta{
				Step:            startStep + int64(opts.Steps),
				Loss:            losses[len(losses)-1],
				OptimizerType:   opts.Optimizer,
				OptimizerConfig: map[string]any{"lr": opts.LR, "momentum": opts.Momentum},
			},
		})
		if err != nil {
			return nil, err
		}
	}
	return losses, nil
}

func printLosses(w io.Writer, losses []float64) error {
	_, err := fmt.Fprintf(w, "initial loss %.6f\nfinal loss   %.6f\n", losses[0], losses[len(losses)-1])
	return err
}
