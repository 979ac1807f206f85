package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/gradtape/internal/npy"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE.npy",
		Short: "Show the header and summary statistics of an .npy file",
		Args:  cobra.ExactArgs(1),
		RunE:  InspectHandler,
	}
}

// InspectHandler prints the header and summary statistics of one file.
func InspectHandler(cmd *cobra.Command, args []string) error {
	path := args[0]

	//nolint:gosec // G304: File path comes from user input
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	header, err := npy.ReadHeader(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	buf, err := npy.Load[float64](path, header.Shape)
	if err != nil {
		return err
	}
	data := buf.Data()
	mean, std := stat.MeanStdDev(data, nil)
	if len(data) < 2 {
		std = 0
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "file:     %s\n", path)
	fmt.Fprintf(w, "version:  %d.%d\n", header.Major, header.Minor)
	fmt.Fprintf(w, "dtype:    %s\n", header.Dtype)
	fmt.Fprintf(w, "order:    %s\n", order(header.FortranOrder))
	fmt.Fprintf(w, "shape:    %v\n", header.Shape)
	fmt.Fprintf(w, "elements: %d\n", len(data))
	fmt.Fprintf(w, "min:      %g\n", floats.Min(data))
	fmt.Fprintf(w, "max:      %g\n", floats.Max(data))
	fmt.Fprintf(w, "mean:     %g\n", mean)
	fmt.Fprintf(w, "std:      %g\n", std)
	return nil
}

func order(fortran bool) string {
	if fortran {
		return "fortran"
	}
	return "c"
}
