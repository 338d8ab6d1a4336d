package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/rand"
)

const (
	subjectsFlag   = "subjects"
	populationFlag = "population"
	slopeFlag      = "slope"
	interceptFlag  = "intercept"
	stddevFlag     = "stddev"
	outFlag        = "out"
	truthFlag      = "truth"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Write synthetic observations from known parameters",
	Long: `Simulate draws a latent value per subject from the population distribution
and then one observation per modality from y = a*x + b + Normal(0, s^2).
Give one --slope, --intercept and --stddev value per modality.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := newStartupParams(cmd)
		if err != nil {
			return err
		}
		defer sp.Close()

		obs, truth, err := simulateData(cmd)
		if err != nil {
			return err
		}

		out := viper.GetString(outFlag)
		f, err := os.Create(out)
		if err != nil {
			return errors.Wrapf(err, "Could not create %s", out)
		}
		if _, err := obs.WriteTo(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		if tf := viper.GetString(truthFlag); len(tf) > 0 {
			if err := truth.WriteTruthFile(tf); err != nil {
				return err
			}
		}

		subjects, modalities := obs.Dims()
		sp.logger.Info("simulated",
			zap.String("file", out),
			zap.Int("subjects", subjects),
			zap.Int("modalities", modalities),
			zap.Int64("seed", viper.GetInt64(seedFlag)))
		return nil
	},
}

func addTruthFlags(cmd *cobra.Command) {
	pf := cmd.Flags()
	pf.IntP(subjectsFlag, "n", 100, "Number of subjects")
	pf.String(populationFlag, "beta(2, 5)", "Distribution of the true values")
	pf.Float64Slice(slopeFlag, []float64{0.6, 0.7, 0.8}, "Slope per modality")
	pf.Float64Slice(interceptFlag, []float64{-0.1, 0.0, 0.1}, "Intercept per modality")
	pf.Float64Slice(stddevFlag, []float64{0.05, 0.03, 0.08}, "Noise std dev per modality")
}

// simulateData draws a data set from the truth flags and --seed. Viper has
// no float slice getter, so those come straight from the flags.
func simulateData(cmd *cobra.Command) (*model.Observations, *model.Truth, error) {
	pop, err := model.ParseDist(viper.GetString(populationFlag))
	if err != nil {
		return nil, nil, err
	}

	spec := model.SimSpec{
		Subjects:   viper.GetInt(subjectsFlag),
		Population: pop,
	}
	if spec.Slope, err = cmd.Flags().GetFloat64Slice(slopeFlag); err != nil {
		return nil, nil, err
	}
	if spec.Intercept, err = cmd.Flags().GetFloat64Slice(interceptFlag); err != nil {
		return nil, nil, err
	}
	if spec.StdDev, err = cmd.Flags().GetFloat64Slice(stddevFlag); err != nil {
		return nil, nil, err
	}

	gen, err := rand.NewGenerator(viper.GetInt64(seedFlag))
	if err != nil {
		return nil, nil, err
	}
	defer gen.Close()

	return model.Simulate(gen, spec)
}

func addSimulateFlags(cmd *cobra.Command) {
	addTruthFlags(cmd)
	cmd.Flags().StringP(outFlag, "o", "", "Observation file to write (required)")
	cmd.Flags().String(truthFlag, "", "Also write the generating values here as YAML")
	_ = cmd.MarkFlagRequired(outFlag)
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	addSimulateFlags(simulateCmd)
}
