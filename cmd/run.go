package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/posterior"
	"github.com/CraigKelly/nogold/sampler"
)

const (
	dataFlag   = "data"
	outputFlag = "output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sample the posterior for an observation file and compare modalities",
	Long: `Run reads a whitespace separated observation file (one row per subject,
one column per modality), samples the posterior with parallel chains and prints
a summary of every monitored parameter followed by all pairwise comparisons.

With --output the draws are saved to an XLSX workbook that the compare command
can query later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := newStartupParams(cmd)
		if err != nil {
			return err
		}
		defer sp.Close()
		return runSampler(cmd, sp)
	},
}

func runSampler(cmd *cobra.Command, sp *startupParams) error {
	mod, err := loadModel(viper.GetString(modelFlag))
	if err != nil {
		return err
	}

	dataFile := viper.GetString(dataFlag)
	obs, err := model.ReadObservationsFile(dataFile)
	if err != nil {
		return err
	}

	cfg, err := samplerConfig()
	if err != nil {
		return err
	}

	// An artifact that can not be saved is known before sampling
	out := viper.GetString(outputFlag)
	if len(out) > 0 {
		subjects, modalities := obs.Dims()
		names, _, _ := sampler.MonitorNames(cfg.Monitor, subjects, modalities)
		if err := posterior.CheckArtifactSize(cfg.Retained(), len(names)); err != nil {
			return err
		}
	}

	res, err := sample(cmd.Context(), sp, mod, obs, cfg)
	if err != nil {
		return err
	}

	if err := report(sp, res); err != nil {
		return err
	}

	if len(out) > 0 {
		if err := posterior.WriteXLSX(out, res); err != nil {
			return err
		}
		sp.logger.Info("saved samples", zap.String("file", out), zap.String("run", res.RunID))
	}
	return nil
}

func addRunFlags(cmd *cobra.Command) {
	addSamplerFlags(cmd)
	cmd.Flags().StringP(dataFlag, "d", "", "Observation file (required)")
	cmd.Flags().StringP(outputFlag, "o", "", "Save draws and summary to this XLSX file")
	_ = cmd.MarkFlagRequired(dataFlag)
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}
