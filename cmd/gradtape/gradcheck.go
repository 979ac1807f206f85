package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/born-ml/gradtape/internal/envconfig"
	"github.com/born-ml/gradtape/internal/gradcheck"
	"github.com/born-ml/gradtape/internal/parallel"
)

func newGradcheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gradcheck",
		Short: "Compare tape gradients of every operation with finite differences",
		Args:  cobra.NoArgs,
		RunE:  GradcheckHandler,
	}
	dtype := dtypeFlag("float64")
	cmd.Flags().Var(&dtype, "dtype", "Element type under test (float32 or float64)")
	cmd.Flags().Float64("tolerance", 0, "Relative tolerance (default $GRADTAPE_TOLERANCE or 1e-4)")
	cmd.Flags().Int("workers", 0, "Concurrent chains (default $GRADTAPE_WORKERS or CPU count)")
	cmd.Flags().Uint64("seed", 0, "Input seed (default $GRADTAPE_SEED or 1)")
	return cmd
}

// GradcheckHandler runs the op-level suite and prints one row per case.
func GradcheckHandler(cmd *cobra.Command, _ []string) error {
	dtype := cmd.Flags().Lookup("dtype").Value.String()
	opts := gradcheck.Options{Tolerance: envconfig.Tolerance(), Seed: envconfig.Seed()}
	if tol, _ := cmd.Flags().GetFloat64("tolerance"); tol > 0 {
		opts.Tolerance = tol
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed, _ = cmd.Flags().GetUint64("seed")
	}
	cfg := workerConfig(cmd)

	var (
		results []gradcheck.Result
		err     error
	)
	switch dtype {
	case "float32":
		results, err = gradcheck.Run[float32](cmd.Context(), cfg, gradcheck.Suite(), opts)
	case "float64":
		results, err = gradcheck.Run[float64](cmd.Context(), cfg, gradcheck.Suite(), opts)
	default:
		return fmt.Errorf("unsupported dtype %q (want float32 or float64)", dtype)
	}
	if err != nil {
		return err
	}

	failed := renderResults(cmd.OutOrStdout(), results)
	klog.InfoS("Gradient check finished", "dtype", dtype, "cases", len(results), "failed", failed, "tolerance", opts.Tolerance)
	if failed > 0 {
		return fmt.Errorf("%d of %d operations exceeded tolerance %g", failed, len(results), opts.Tolerance)
	}
	return nil
}

// dtypeFlag restricts --dtype to the supported element types at parse time.
type dtypeFlag string

var _ pflag.Value = (*dtypeFlag)(nil)

func (d *dtypeFlag) String() string { return string(*d) }

func (d *dtypeFlag) Set(s string) error {
	switch s {
	case "float32", "float64":
		*d = dtypeFlag(s)
		return nil
	default:
		return fmt.Errorf("unsupported dtype %q (want float32 or float64)", s)
	}
}

func (*dtypeFlag) Type() string { return "dtype" }

// workerConfig applies --workers or GRADTAPE_WORKERS to the default config.
func workerConfig(cmd *cobra.Command) parallel.Config {
	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = int(envconfig.Workers())
	}
	return parallel.DefaultConfig().WithWorkers(workers)
}

func renderResults(w io.Writer, results []gradcheck.Result) (failed int) {
	data := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		switch {
		case r.Err != nil:
			status = r.Err.Error()
			failed++
		case !r.Passed:
			status = "FAIL"
			failed++
		}
		data = append(data, []string{
			r.Name,
			r.DataType.String(),
			strconv.FormatFloat(r.MaxAbsError, 'e', 2, 64),
			strconv.FormatFloat(r.MaxRelError, 'e', 2, 64),
			status,
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"OPERATION", "DTYPE", "MAX ABS", "MAX REL", "STATUS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
	return failed
}
