package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/posterior"
)

const (
	samplesFlag = "samples"
	kindFlag    = "kind"
	firstFlag   = "first"
	secondFlag  = "second"
	omegaFlag   = "omega"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare modalities using draws saved by run --output",
	Long: `Compare estimates the probability that modality i's parameter is closer to
omega than modality j's, using the pooled draws of a saved run. Leave out
--first or --second to compare every ordered pair. Omega defaults to the
parameter's ideal value (slope 1, intercept 0, stddev 0); --omega, NOGOLD_OMEGA
or an omega entry in the --config file override it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := newStartupParams(cmd)
		if err != nil {
			return err
		}
		defer sp.Close()
		return compareSaved(sp)
	},
}

func compareSaved(sp *startupParams) error {
	res, err := posterior.ReadXLSX(viper.GetString(samplesFlag))
	if err != nil {
		return err
	}
	limit := viper.GetFloat64(rhatLimitFlag)
	for _, s := range res.Summary {
		if rh, ok := res.Rhat[s.Name]; ok && rh > limit {
			sp.warn("WARNING: %s has split R-hat %.4f in run %s", s.Name, rh, res.RunID)
		}
	}

	kind, err := model.ParseKind(viper.GetString(kindFlag))
	if err != nil {
		return err
	}
	omega := kind.Ideal()
	if viper.IsSet(omegaFlag) {
		omega = viper.GetFloat64(omegaFlag)
	}

	cmp, err := res.Comparator()
	if err != nil {
		return err
	}

	i, j := viper.GetInt(firstFlag), viper.GetInt(secondFlag)
	if i == 0 || j == 0 {
		if i != 0 || j != 0 {
			return errors.Wrapf(model.ErrInvalidParameterRequest, "give both --%s and --%s, or neither", firstFlag, secondFlag)
		}
		all, err := cmp.All(kind, omega)
		if err != nil {
			return err
		}
		sp.title("Run %s: %s", res.RunID, kind)
		printComparisons(sp, all)
		return nil
	}

	c, err := cmp.Contrast(kind, i, j, omega)
	if err != nil {
		return err
	}
	printComparisons(sp, []posterior.Comparison{c})
	return nil
}

func addCompareFlags(cmd *cobra.Command) {
	pf := cmd.Flags()
	pf.StringP(samplesFlag, "s", "", "XLSX file written by run --output (required)")
	pf.StringP(kindFlag, "k", "slope", "Parameter to compare: slope, intercept or stddev")
	pf.IntP(firstFlag, "i", 0, "First modality (1-based)")
	pf.IntP(secondFlag, "j", 0, "Second modality (1-based)")
	pf.Float64(omegaFlag, 0, "Target value (default: the parameter's ideal)")
	pf.Float64(rhatLimitFlag, 1.1, "Warn about saved R-hat values above this")
	_ = cmd.MarkFlagRequired(samplesFlag)
}

func init() {
	rootCmd.AddCommand(compareCmd)
	addCompareFlags(compareCmd)
}
