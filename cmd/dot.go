package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CraigKelly/nogold/model"
)

const modalitiesFlag = "modalities"

var dotCmd = &cobra.Command{
	Use:   "dot",
	Short: "Print the model's dependency graph in graphviz format",
	Long: `Dot prints the directed graph the sampler walks: latent values, per modality
slope, intercept and precision, the derived means and std devs, and the
observed data. Pipe it through "dot -Tsvg" to view it. With --data the graph
matches that file, otherwise --subjects and --modalities size it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := newStartupParams(cmd)
		if err != nil {
			return err
		}
		defer sp.Close()
		return DotOutput(sp)
	},
}

var nodeShape = map[model.NodeType]string{
	model.Stochastic:    "ellipse",
	model.Deterministic: "box",
	model.Observed:      "doublecircle",
}

// DotOutput reads a model and outputs a graphviz description of its graph
func DotOutput(sp *startupParams) error {
	mod, err := loadModel(viper.GetString(modelFlag))
	if err != nil {
		return err
	}

	subjects := viper.GetInt(subjectsFlag)
	if dataFile := viper.GetString(dataFlag); len(dataFile) > 0 {
		obs, err := model.ReadObservationsFile(dataFile)
		if err != nil {
			return err
		}
		if err := mod.Conform(obs); err != nil {
			return err
		}
		subjects, _ = obs.Dims()
	} else if mod.Modalities == 0 {
		mod.Modalities = viper.GetInt(modalitiesFlag)
		mod.Priors = make([]model.LinearPrior, mod.Modalities)
		for i := range mod.Priors {
			mod.Priors[i] = mod.Default
		}
	}

	g, err := mod.Graph(subjects)
	if err != nil {
		return err
	}
	if err := g.Check(); err != nil {
		return err
	}

	if len(sp.traceFile) > 0 {
		sp.out.Printf("Writing graph to trace file %v\n", sp.traceFile)
	}
	target := sp.target()

	target.Printf("digraph %q {\n", mod.Name)
	target.Printf("    rankdir=LR;\n")
	for _, v := range g.Vars {
		target.Printf("    %q [shape=%s, tooltip=%q];\n", v.Name, nodeShape[v.Type], v.Dist)
	}
	for _, v := range g.Vars {
		for _, p := range v.Parents {
			target.Printf("    %q -> %q;\n", p.Name, v.Name)
		}
	}
	target.Printf("}\n")

	return nil
}

func addDotFlags(cmd *cobra.Command) {
	pf := cmd.Flags()
	pf.StringP(modelFlag, "m", "", "YAML model description")
	pf.StringP(dataFlag, "d", "", "Observation file that sizes the graph")
	pf.IntP(subjectsFlag, "n", 3, "Subjects to draw when there is no data file")
	pf.Int(modalitiesFlag, 2, "Modalities to draw when neither model nor data declare them")
}

func init() {
	rootCmd.AddCommand(dotCmd)
	addDotFlags(dotCmd)
}
