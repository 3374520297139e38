package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksred/klear-recon/internal/reconciliation"
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Generate or validate threshold files",
}

var thresholdsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default thresholds to a YAML file",
	Long: `Create a thresholds file holding the default tolerances.

Example:
  reconciler thresholds init -o thresholds.yaml`,
	RunE: runThresholdsInit,
}

var thresholdsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a thresholds file and print the effective tolerances",
	RunE:  runThresholdsValidate,
}

var (
	thresholdsInitOutput   string
	thresholdsValidatePath string
)

func init() {
	rootCmd.AddCommand(thresholdsCmd)
	thresholdsCmd.AddCommand(thresholdsInitCmd)
	thresholdsCmd.AddCommand(thresholdsValidateCmd)

	thresholdsInitCmd.Flags().StringVarP(&thresholdsInitOutput, "output", "o", "thresholds.yaml", "output file path")
	thresholdsValidateCmd.Flags().StringVarP(&thresholdsValidatePath, "file", "f", "", "path to thresholds file (required)")
	thresholdsValidateCmd.MarkFlagRequired("file")
}

func runThresholdsInit(cmd *cobra.Command, args []string) error {
	if err := reconciliation.DefaultThresholds.SaveToFile(thresholdsInitOutput); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created default thresholds: %s\n", thresholdsInitOutput)
	return nil
}

func runThresholdsValidate(cmd *cobra.Command, args []string) error {
	overrides, err := reconciliation.LoadOverridesFromFile(thresholdsValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	t := reconciliation.DefaultThresholds.Merge(overrides)
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Thresholds valid: %s\n", thresholdsValidatePath)
	fmt.Fprintf(out, "  Cash: %.4f%% or %.2f absolute\n", t.CashDifferencePercent, t.CashDifferenceAbsolute)
	fmt.Fprintf(out, "  Position quantity: %.4f%%\n", t.PositionQuantityPercent)
	fmt.Fprintf(out, "  Position price: %.4f%%\n", t.PositionPricePercent)
	fmt.Fprintf(out, "  Missing position escalation: %.2f\n", t.MinMissingPositionValue)
	return nil
}
