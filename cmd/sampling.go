package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/CraigKelly/nogold/model"
	"github.com/CraigKelly/nogold/posterior"
	"github.com/CraigKelly/nogold/rand"
	"github.com/CraigKelly/nogold/sampler"
)

// Flags shared by every command that samples
const (
	modelFlag      = "model"
	paramsFlag     = "params"
	thinFlag       = "thin"
	burnInFlag     = "burn-in"
	iterationsFlag = "iterations"
	chainsFlag     = "chains"
	rngFlag        = "rng"
	featuresFlag   = "features"
	windowFlag     = "window"
	rhatLimitFlag  = "rhat-limit"
	policyFlag     = "policy"
	monitorFlag    = "monitor"
)

func addSamplerFlags(cmd *cobra.Command) {
	pf := cmd.Flags()
	pf.StringP(modelFlag, "m", "", "YAML model description (default priors when empty)")
	pf.StringSlice(paramsFlag, []string{"slope", "intercept", "stddev"}, "Parameter kinds to keep: slope, intercept, stddev, precision, latent")
	pf.Int(thinFlag, sampler.DefaultThin, "Keep every n-th sweep")
	pf.IntP(burnInFlag, "b", sampler.DefaultBurnIn, "Burn-in sweeps per chain, never kept")
	pf.IntP(iterationsFlag, "i", sampler.DefaultIterations, "Sweeps per chain after burn-in")
	pf.Int(chainsFlag, 2, "Number of chains; chain c uses seed+c-1")
	pf.StringSlice(rngFlag, []string{string(rand.MersenneTwister), string(rand.PCG)}, "Generator per chain, reused in order when there are more chains")
	pf.StringSlice(featuresFlag, []string{sampler.FeatureGLM}, "Sampler features (glm: joint slope and intercept update)")
	pf.Int(windowFlag, 0, "Draws per chain used for R-hat (0 means every kept draw)")
	pf.Float64(rhatLimitFlag, sampler.DefaultRhatLimit, "Largest split R-hat counted as converged")
	pf.String(policyFlag, "warn", "Unconverged parameters: warn or fail")
	pf.String(monitorFlag, "", "Serve progress at this address (e.g. :8000): /debug/vars and /metrics")
}

// loadModel reads a YAML model or returns one with default priors
func loadModel(filename string) (*model.Model, error) {
	if len(filename) < 1 {
		m := model.NewModel(0)
		m.Name = "default"
		return m, nil
	}
	return model.NewModelFromFile(model.YAMLReader{}, filename)
}

// samplerConfig builds the sampler config from bound flags
func samplerConfig() (*sampler.Config, error) {
	var kinds []model.Kind
	for _, s := range viper.GetStringSlice(paramsFlag) {
		k, err := model.ParseKind(s)
		if err != nil {
			return nil, errors.Wrapf(model.ErrInvalidConfiguration, "--%s: %v", paramsFlag, err)
		}
		kinds = append(kinds, k)
	}

	policy, err := sampler.ParsePolicy(viper.GetString(policyFlag))
	if err != nil {
		return nil, err
	}

	chains := viper.GetInt(chainsFlag)
	if chains < 1 {
		return nil, errors.Wrapf(model.ErrInvalidConfiguration, "--%s must be positive, got %d", chainsFlag, chains)
	}
	rngs := viper.GetStringSlice(rngFlag)
	if len(rngs) < 1 {
		return nil, errors.Wrapf(model.ErrInvalidConfiguration, "--%s needs at least one generator", rngFlag)
	}

	seed := viper.GetInt64(seedFlag)
	inits := make([]sampler.Init, chains)
	for c := range inits {
		kind, err := rand.ParseKind(rngs[c%len(rngs)])
		if err != nil {
			return nil, errors.Wrapf(model.ErrInvalidConfiguration, "chain %d: %v", c+1, err)
		}
		inits[c] = sampler.Init{RNG: kind, Seed: seed + int64(c)}
	}

	var features []string
	for _, f := range viper.GetStringSlice(featuresFlag) {
		if f = strings.TrimSpace(f); len(f) > 0 {
			features = append(features, strings.ToLower(f))
		}
	}

	cfg := sampler.NewDefaultConfig().
		WithMonitor(kinds...).
		WithThin(viper.GetInt(thinFlag)).
		WithBurnIn(viper.GetInt(burnInFlag)).
		WithIterations(viper.GetInt(iterationsFlag)).
		WithInits(inits...).
		WithFeatures(features...).
		WithWindow(viper.GetInt(windowFlag)).
		WithRhatLimit(viper.GetFloat64(rhatLimitFlag)).
		WithPolicy(policy)

	return cfg, cfg.Check()
}

// sample runs the sampler until done or interrupted, serving progress if
// --monitor names an address.
func sample(ctx context.Context, sp *startupParams, mod *model.Model, obs *model.Observations, cfg *sampler.Config) (*posterior.Result, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := sampler.NewRunner(sp.logger)

	var mon *monitor
	if addr := viper.GetString(monitorFlag); len(addr) > 0 {
		mon = newMonitor(addr, sp.logger)
		if err := mon.Start(); err != nil {
			return nil, err
		}
		defer mon.Stop()

		mon.Begin(cfg)
		runner.Progress = mon.Progress
	}

	subjects, modalities := obs.Dims()
	sp.logger.Debug("observations", zap.Int("subjects", subjects), zap.Int("modalities", modalities))

	res, err := runner.Sample(ctx, mod, obs, cfg)
	if mon != nil {
		mon.Finish(res)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// report prints the summary, any warnings and every comparison
func report(sp *startupParams, res *posterior.Result) error {
	sp.title("Run %s: %d chains, %d draws each", res.RunID, len(res.Chains), res.Chains[0].Len())
	printSummary(sp, res.Summary)

	for _, w := range res.Warnings {
		sp.warn("WARNING: %v", w)
	}
	if !res.Converged() {
		sp.warn("Comparisons below use chains that may not have converged")
	}

	if res.Modalities < 2 {
		return nil
	}

	cmp, err := res.Comparator()
	if err != nil {
		return err
	}
	for _, kind := range model.DefaultMonitor {
		if !res.Chains[0].Has(model.ParamName(kind, 1)) {
			continue
		}
		all, err := cmp.All(kind, kind.Ideal())
		if err != nil {
			return err
		}
		sp.out.Println()
		sp.title("P(|%s[i]-%g| < |%s[j]-%g|)", kind.Symbol(), kind.Ideal(), kind.Symbol(), kind.Ideal())
		printComparisons(sp, all)
	}
	return nil
}
