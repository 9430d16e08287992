package cmd

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/ftlsim/ftl"
	"github.com/sarchlab/ftlsim/ftl/device"
	"github.com/sarchlab/ftlsim/ftl/metrics"
	"github.com/sarchlab/ftlsim/ftl/recording"
	"github.com/sarchlab/ftlsim/ftl/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the workload once and print the wear statistics.",
	Long: "`run` formats the simulated SSD, drives the workload through " +
		"the wear-leveling FTL and prints the per-block write table and " +
		"the distribution statistics.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("quiet", false, "Print a one-line summary only")
	runCmd.Flags().String("record", "",
		"Record the run into <name>.sqlite3 (empty name picks one)")
	runCmd.Flags().Bool("trace", true, "Record every write when recording")
	runCmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics of the run to this file")
}

// openDevice returns the device of one run and a function that releases it.
func openDevice(cmd *cobra.Command, cfg ftl.Config) (ftl.BlockDevice, func(), error) {
	inMem, _ := cmd.Flags().GetBool("mem")
	if inMem {
		return device.NewMemDevice(cfg.NumBlocks, cfg.BlockSize), func() {}, nil
	}

	image, _ := cmd.Flags().GetString("image")
	fmt.Fprintf(cmd.ErrOrStderr(), "Initializing SSD file %s...\n", image)

	d, err := device.Create(image, cfg.NumBlocks, cfg.BlockSize)
	if err != nil {
		return nil, nil, err
	}

	return d, func() { d.Close() }, nil
}

func runOnce(cmd *cobra.Command, out io.Writer) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	w, err := workloadFromFlags(cmd)
	if err != nil {
		return err
	}

	dev, release, err := openDevice(cmd, cfg)
	if err != nil {
		return err
	}
	defer release()

	runner := ftl.MakeBuilder().
		WithConfig(cfg).
		WithDevice(dev).
		Build("FTL")

	recorder, dataRecorder, err := attachRecorder(cmd, runner)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	runner.AcceptHook(collector)

	state, res, err := runner.Run(w)
	if err != nil {
		if dataRecorder != nil {
			dataRecorder.Close()
		}

		return err
	}

	collector.ObserveResult(runner.Name(), res)

	if recorder != nil {
		err := recorder.RecordRun(runner, state, res)
		if closeErr := dataRecorder.Close(); err == nil {
			err = closeErr
		}

		if err != nil {
			return err
		}
	}

	if err := writeMetrics(cmd, collector.Registry()); err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	if quiet {
		return report.WriteSummary(out, res)
	}

	return report.Write(out, res, state.Blocks())
}

func attachRecorder(
	cmd *cobra.Command,
	runner *ftl.Runner,
) (*recording.Recorder, recording.DataRecorder, error) {
	if !cmd.Flags().Changed("record") {
		return nil, nil, nil
	}

	name, _ := cmd.Flags().GetString("record")
	trace, _ := cmd.Flags().GetBool("trace")

	dataRecorder, err := recording.New(name)
	if err != nil {
		return nil, nil, err
	}

	recorder, err := recording.NewRecorder(dataRecorder, trace)
	if err != nil {
		dataRecorder.Close()
		return nil, nil, err
	}

	runner.AcceptHook(recorder)

	return recorder, dataRecorder, nil
}

func writeMetrics(cmd *cobra.Command, registry *prometheus.Registry) error {
	path, _ := cmd.Flags().GetString("metrics-file")
	if path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}

	return nil
}
