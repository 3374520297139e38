package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ksred/klear-recon/internal/reconciliation"
)

// ErrNotApproved is returned under --strict when the overall status is not APPROVED
var ErrNotApproved = errors.New("reconciliation not approved")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile an internal snapshot file against a custody snapshot file",
	Long: `Reconcile two JSON snapshot files and print the result.

Examples:
  reconciler run --internal registry.json --custody custody.json
  reconciler run -i registry.json -c custody.json -t thresholds.yaml --strict`,
	RunE: runReconcile,
}

var (
	runInternalPath   string
	runCustodyPath    string
	runThresholdsPath string
	runFundID         string
	runOutputPath     string
	runStrict         bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runInternalPath, "internal", "i", "", "internal snapshot JSON file (required)")
	runCmd.Flags().StringVarP(&runCustodyPath, "custody", "c", "", "custody snapshot JSON file (required)")
	runCmd.Flags().StringVarP(&runThresholdsPath, "thresholds", "t", "", "YAML file overriding default thresholds")
	runCmd.Flags().StringVar(&runFundID, "fund", "", "fund identifier (defaults to the internal snapshot fundId)")
	runCmd.Flags().StringVarP(&runOutputPath, "output", "o", "", "write the result to this file instead of stdout")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "exit with status 2 unless the result is APPROVED")
	runCmd.MarkFlagRequired("internal")
	runCmd.MarkFlagRequired("custody")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	var internal reconciliation.InternalSnapshot
	if err := readJSON(runInternalPath, &internal); err != nil {
		return fmt.Errorf("internal snapshot: %w", err)
	}

	var custody reconciliation.CustodySnapshot
	if err := readJSON(runCustodyPath, &custody); err != nil {
		return fmt.Errorf("custody snapshot: %w", err)
	}

	var overrides reconciliation.Overrides
	if runThresholdsPath != "" {
		o, err := reconciliation.LoadOverridesFromFile(runThresholdsPath)
		if err != nil {
			return err
		}
		overrides = o
	}

	fundID := runFundID
	if fundID == "" {
		fundID = internal.FundID
	}

	result, err := reconciliation.Reconcile(fundID, &internal, &custody, overrides, time.Now())
	if err != nil {
		return err
	}

	log.Debug().
		Str("reconciliation_id", result.ID).
		Str("overall_status", string(result.Summary.OverallStatus)).
		Int("flags", len(result.Flags)).
		Msg("reconciliation completed")

	var out io.Writer = cmd.OutOrStdout()
	if runOutputPath != "" {
		f, err := os.Create(runOutputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeResult(out, result); err != nil {
		return err
	}

	if runStrict && result.Summary.OverallStatus != reconciliation.OverallApproved {
		return fmt.Errorf("%w: %s", ErrNotApproved, result.Summary.OverallStatus)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeResult(w io.Writer, result *reconciliation.ReconciliationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
