package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ftlsim/ftl"
	"github.com/sarchlab/ftlsim/ftl/bench"
	"github.com/sarchlab/ftlsim/ftl/device"
	"github.com/sarchlab/ftlsim/ftl/report"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Repeat independent runs and report the time they take.",
	Long: "`bench` runs the workload many times, each run starting from a " +
		"fresh wear state, and reports the total and average run time. " +
		"With --workers above one, runs execute in parallel, each on its " +
		"own image.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(cmd)
	},
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().Int("runs", 100, "Number of runs")
	benchCmd.Flags().Int("workers", 1, "Number of runs executed in parallel")
	benchCmd.Flags().Bool("profile", false,
		"Profile the batch and print the most expensive functions")
	benchCmd.Flags().Int("profile-top", 10, "Functions listed by --profile")
	benchCmd.Flags().String("profile-file", "",
		"Write the CPU profile of the batch to this file (implies --profile)")
}

func runBench(cmd *cobra.Command) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	w, err := workloadFromFlags(cmd)
	if err != nil {
		return err
	}

	runs, _ := cmd.Flags().GetInt("runs")
	workers, _ := cmd.Flags().GetInt("workers")
	profileTop, _ := cmd.Flags().GetInt("profile-top")
	profileFile, _ := cmd.Flags().GetString("profile-file")
	profiling, _ := cmd.Flags().GetBool("profile")
	profiling = profiling || profileFile != ""

	newDevice, err := benchDevices(cmd, cfg, workers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n--- Benchmark: %d runs ---\n", runs)

	rep, err := bench.Benchmark{
		Runs:       runs,
		Workers:    workers,
		Config:     cfg,
		Workload:   w,
		NewDevice:  newDevice,
		Profile:    profiling,
		ProfileTop: profileTop,
	}.Run()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Total time  : %.6f seconds\n", rep.Total.Seconds())
	fmt.Fprintf(out, "Avg per run : %.6f seconds\n", rep.PerRun.Seconds())
	fmt.Fprintf(out, "Deterministic: %t\n", rep.Identical)
	fmt.Fprintf(out, "Process     : cpu=%.1f%% rss=%d bytes\n",
		rep.Resources.CPUPercent, rep.Resources.RSS)

	if rep.Profile != nil {
		writeProfile(out, rep.Profile)

		if profileFile != "" {
			if err := saveProfile(profileFile, rep.Profile); err != nil {
				return err
			}
		}
	}

	return report.WriteSummary(out, rep.First)
}

func writeProfile(out io.Writer, p *bench.Profile) {
	fmt.Fprintf(out, "CPU profile : %d samples, %v\n", p.Samples, p.Total)

	for _, f := range p.Top {
		fmt.Fprintf(out, "  %12v %12v  %s\n", f.Flat, f.Cum, f.Name)
	}
}

func saveProfile(path string, p *bench.Profile) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := p.Raw.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("write profile to %s: %w", path, err)
	}

	return f.Close()
}

// benchDevices formats the images the runs write to. A sequential benchmark
// reopens one image for every run. Parallel runs get one image per run.
func benchDevices(
	cmd *cobra.Command,
	cfg ftl.Config,
	workers int,
) (bench.DeviceFactory, error) {
	inMem, _ := cmd.Flags().GetBool("mem")
	if inMem {
		return func(int) (ftl.BlockDevice, error) {
			return device.NewMemDevice(cfg.NumBlocks, cfg.BlockSize), nil
		}, nil
	}

	image, _ := cmd.Flags().GetString("image")

	if workers <= 1 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Initializing SSD file %s...\n", image)

		if err := device.Format(image, cfg.NumBlocks, cfg.BlockSize); err != nil {
			return nil, err
		}

		return func(int) (ftl.BlockDevice, error) {
			d, err := device.Open(image, cfg.NumBlocks, cfg.BlockSize)
			if err != nil {
				return nil, err
			}

			return d, nil
		}, nil
	}

	return func(run int) (ftl.BlockDevice, error) {
		d, err := device.Create(perRunImage(image, run),
			cfg.NumBlocks, cfg.BlockSize)
		if err != nil {
			return nil, err
		}

		return d, nil
	}, nil
}

func perRunImage(image string, run int) string {
	ext := filepath.Ext(image)
	return fmt.Sprintf("%s.%d%s", strings.TrimSuffix(image, ext), run, ext)
}
