package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/ftlsim/ftl/workload"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Print the workload, one reference string per line.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := workloadFromFlags(cmd)
		if err != nil {
			return err
		}

		perLine, _ := cmd.Flags().GetInt("per-line")

		return workload.Format(cmd.OutOrStdout(), w, perLine)
	},
}

func init() {
	rootCmd.AddCommand(corpusCmd)
	corpusCmd.Flags().Int("per-line", 10, "Addresses per line")
}
