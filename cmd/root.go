package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envVarPrefix = "NOGOLD"

	configFlag   = "config"
	verboseFlag  = "verbose"
	logLevelFlag = "log-level"
	seedFlag     = "seed"
	traceFlag    = "trace"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nogold",
	Short: "Compare measurement methods without a gold standard",
	Long: `nogold ranks measurement methods (modalities) that all estimate the same
quantity for the same subjects, when nobody knows the true values.

Every modality is modelled as a noisy linear function of the unknown truth:

  y[i,m] = a[m] * x[i] + b[m] + e,   e ~ Normal(0, s[m]^2)

The posterior over slopes, intercepts and noise is sampled with parallel
MCMC chains, and modalities are compared by how often their parameters sit
closer to the ideal (a = 1, b = 0, s = 0).

Commands:

  run       sample the posterior for a data file and compare modalities
  compare   answer comparison queries against a saved sample artifact
  simulate  write synthetic data (and its truth) for validation
  check     sample simulated data and report recovery against the truth
  dot       print the model's dependency graph for graphviz

Flags can also be set in a YAML --config file or through NOGOLD_ environment
variables (NOGOLD_BURN_IN=2000); a .env file in the working directory is
loaded first.
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// execute runs the command line in args, writing to out
func execute(args []string, out io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, configFlag, "c", "", "YAML config file with flag values")
	rootCmd.PersistentFlags().BoolP(verboseFlag, "v", false, "Verbose logging (same as --log-level debug)")
	rootCmd.PersistentFlags().String(logLevelFlag, "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Int64P(seedFlag, "r", 1, "Random seed: chain c uses seed+c-1")
	rootCmd.PersistentFlags().StringP(traceFlag, "t", "", "Write command output here instead of stdout")
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	_ = godotenv.Load() // a missing .env is fine

	viper.SetEnvPrefix(envVarPrefix) // look for env vars with "NOGOLD_" prefix
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if len(cfgFile) > 0 {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Could not READ config %s: %v", cfgFile, err)))
			os.Exit(1)
		}
	}
}

// bindFlags makes viper see the flags of the command about to run. Commands
// share flag names, so binding happens per invocation rather than in init.
func bindFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return viper.BindPFlags(cmd.InheritedFlags())
}
