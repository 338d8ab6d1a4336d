package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/posterior"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Sample simulated data and report how well the truth is recovered",
	Long: `Check simulates a data set exactly as the simulate command does, samples its
posterior and prints each parameter's posterior mean next to the value that
generated the data. --truth reads the generating values from a file written
by simulate instead, and --data uses that file's observations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := newStartupParams(cmd)
		if err != nil {
			return err
		}
		defer sp.Close()
		return checkRecovery(cmd, sp)
	},
}

func checkRecovery(cmd *cobra.Command, sp *startupParams) error {
	var (
		obs   *model.Observations
		truth *model.Truth
		err   error
	)
	if tf := viper.GetString(truthFlag); len(tf) > 0 {
		if truth, err = model.NewTruthFromFile(tf); err != nil {
			return err
		}
		if obs, err = model.ReadObservationsFile(viper.GetString(dataFlag)); err != nil {
			return err
		}
	} else if obs, truth, err = simulateData(cmd); err != nil {
		return err
	}

	mod, err := loadModel(viper.GetString(modelFlag))
	if err != nil {
		return err
	}
	if len(viper.GetString(modelFlag)) < 1 {
		pop, err := model.ParseDist(viper.GetString(populationFlag))
		if err != nil {
			return err
		}
		mod.Name = "check"
		mod.Population = pop
	}

	cfg, err := samplerConfig()
	if err != nil {
		return err
	}

	res, err := sample(cmd.Context(), sp, mod, obs, cfg)
	if err != nil {
		return err
	}
	if err := report(sp, res); err != nil {
		return err
	}

	recov, err := truth.Error(posterior.Means(res.Summary))
	if err != nil {
		return err
	}

	sp.out.Println()
	sp.title("Recovery")
	sp.out.Println(headStyle.Render(fmt.Sprintf("%-10s %10s %10s %10s", "param", "truth", "mean", "abs err")))
	sp.out.Println(rule(43))
	for _, r := range recov {
		sp.out.Printf("%-10s %10.5f %10.5f %10.5f\n", r.Name, r.Truth, r.Estimate, r.AbsError)
	}
	return nil
}

func addCheckFlags(cmd *cobra.Command) {
	addSamplerFlags(cmd)
	addTruthFlags(cmd)
	cmd.Flags().String(truthFlag, "", "Generating values written by simulate --truth")
	cmd.Flags().StringP(dataFlag, "d", "", "Observations matching --truth")
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addCheckFlags(checkCmd)
}
