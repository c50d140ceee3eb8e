// fertictl: calcolo ricette di fertirrigazione da terminale.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LeonardoBeccarini/fertigation/internal/model/entities"
	"github.com/LeonardoBeccarini/fertigation/internal/services/calculator"
)

// logger is rebuilt by the root command on every run.
var logger = zap.NewNop()

// buildLogger crea il logger di produzione su stderr.
var buildLogger = func(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return config.Build()
}

// errReported marks a failure whose message was already printed to the user.
var errReported = errors.New("reported")

func newRootCmd(out io.Writer) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "fertictl",
		Short:         "Fertigation recipe calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := buildLogger(verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.SetOut(out)

	root.AddCommand(newCalcCmd(), newStagesCmd())
	return root
}

func newCalcCmd() *cobra.Command {
	var (
		stage  string
		volume string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Scale the base recipe of a growth stage to a tank volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			res := calculator.Default.CalculateRaw(stage, volume)
			logger.Debug("calc",
				zap.String("stage", stage),
				zap.String("volume", volume),
				zap.String("outcome", string(res.Outcome)))

			if !res.OK() {
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return errReported
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(recipeJSON(res.Recipe))
			}
			printRecipe(cmd.OutOrStdout(), res.Recipe)
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "seedling", "growth stage")
	cmd.Flags().StringVar(&volume, "volume", "1000", "tank volume in liters")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func newStagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the growth stages in table order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range calculator.Default.Stages() {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

// stessa forma della ricetta Python: {"Tank A": {...}, "Tank B": {...}}
func recipeJSON(r *calculator.CalculatedRecipe) map[entities.Tank]map[string]float64 {
	out := make(map[entities.Tank]map[string]float64, len(entities.Tanks))
	for _, t := range entities.Tanks {
		out[t] = r.Formula(t).AsMap()
	}
	return out
}

func printRecipe(w io.Writer, r *calculator.CalculatedRecipe) {
	fmt.Fprintf(w, "Stage: %s  Volume: %s L\n", r.Stage, strconv.FormatFloat(r.VolumeLiters, 'f', -1, 64))
	for _, t := range entities.Tanks {
		fmt.Fprintf(w, "%s:\n", t)
		for _, a := range r.Formula(t) {
			fmt.Fprintf(w, "  %s: %.2f g\n", a.Name, a.Grams)
		}
	}
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
