// Package cmd provides the command-line interface of the FTL simulator.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/ftlsim/ftl"
	"github.com/sarchlab/ftlsim/ftl/device"
	"github.com/sarchlab/ftlsim/ftl/workload"
)

// Environment variables that provide flag defaults.
const (
	envConfig = "FTLSIM_CONFIG"
	envImage  = "FTLSIM_IMAGE"
	envRuns   = "FTLSIM_RUNS"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ftlsim",
	Short: "ftlsim simulates the wear-leveling of a flash translation layer.",
	Long: `ftlsim simulates the wear-leveling of a flash translation layer. ` +
		`It maps logical block addresses onto a pool of physical flash ` +
		`blocks, always programming the least worn healthy block, and ` +
		`reports how evenly the wear is spread.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnv(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Pending recordings are flushed before the process exits.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("env-file", ".env", "File with FTLSIM_* defaults")
	f.String("config", "", "YAML file with the device geometry")
	f.Int("blocks", 0, "Number of physical blocks (overrides config)")
	f.Int("logical", 0, "Number of logical addresses (overrides config)")
	f.Int("block-size", 0, "Block size in bytes (overrides config)")
	f.Int("lifespan", 0, "Writes before a block dies (overrides config)")
	f.String("image", device.DefaultImageName, "Backing image of the simulated SSD")
	f.Bool("mem", false, "Keep the simulated SSD in memory instead of an image")
	f.String("workload", "", "File with logical addresses (default: reference corpus)")
}

// loadEnv reads the env file, if any, and applies FTLSIM_* variables to flags
// the user did not set.
func loadEnv(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")

	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	defaults := map[string]string{
		"config": envConfig,
		"image":  envImage,
		"runs":   envRuns,
	}

	for flag, env := range defaults {
		value, ok := os.LookupEnv(env)
		if !ok || cmd.Flags().Lookup(flag) == nil || cmd.Flags().Changed(flag) {
			continue
		}

		if err := cmd.Flags().Set(flag, value); err != nil {
			return fmt.Errorf("%s=%q: %w", env, value, err)
		}
	}

	return nil
}

func configFromFlags(cmd *cobra.Command) (ftl.Config, error) {
	cfg := ftl.DefaultConfig()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		var err error

		cfg, err = ftl.LoadConfig(path)
		if err != nil {
			return ftl.Config{}, err
		}
	}

	overrides := map[string]*int{
		"blocks":     &cfg.NumBlocks,
		"logical":    &cfg.NumLogical,
		"block-size": &cfg.BlockSize,
		"lifespan":   &cfg.Lifespan,
	}

	for flag, field := range overrides {
		if !cmd.Flags().Changed(flag) {
			continue
		}

		v, _ := cmd.Flags().GetInt(flag)
		*field = v
	}

	if err := cfg.Validate(); err != nil {
		return ftl.Config{}, err
	}

	return cfg, nil
}

func workloadFromFlags(cmd *cobra.Command) ([]int, error) {
	path, _ := cmd.Flags().GetString("workload")
	if path == "" {
		return workload.Reference(), nil
	}

	return workload.LoadFile(path)
}
