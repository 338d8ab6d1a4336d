package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// Graph is the model as a directed acyclic graph of random variables and
// deterministic transforms. Edges point from parent to child. Rather than
// being executed statement by statement, the model is consumed by walking
// this graph.
type Graph struct {
	Subjects   int
	Modalities int
	Vars       []*Variable
	byName     map[string]*Variable
}

// add appends a new node and indexes it by name
func (g *Graph) add(name string, t NodeType, role Role, dist string, parents ...*Variable) *Variable {
	v, err := NewVariable(len(g.Vars), name, t, role)
	if err != nil {
		panic(fmt.Sprintf("BUG: invalid graph node: %v", err))
	}
	v.Dist = dist
	v.Parents = parents
	g.Vars = append(g.Vars, v)
	g.byName[name] = v
	return v
}

// Graph builds the dependency graph for nObs subjects
func (m *Model) Graph(nObs int) (*Graph, error) {
	if err := m.Check(); err != nil {
		return nil, err
	}
	if nObs < 1 {
		return nil, dimErrorf("model %s needs at least one subject, got %d", m.Name, nObs)
	}

	g := &Graph{
		Subjects:   nObs,
		Modalities: m.Modalities,
		byName:     make(map[string]*Variable),
	}

	latent := make([]*Variable, nObs)
	for i := range latent {
		latent[i] = g.add(ParamName(Latent, i+1), Stochastic, RoleLatent, m.Population.String())
		latent[i].Subject = i
	}

	slope := make([]*Variable, m.Modalities)
	icept := make([]*Variable, m.Modalities)
	tau := make([]*Variable, m.Modalities)
	for j, p := range m.Priors {
		mod := j + 1
		slope[j] = g.add(ParamName(Slope, mod), Stochastic, RoleSlope, p.Slope.String())
		icept[j] = g.add(ParamName(Intercept, mod), Stochastic, RoleIntercept, p.Intercept.String())
		tau[j] = g.add(ParamName(Precision, mod), Stochastic, RolePrecision, p.Precision.String())
		s := g.add(ParamName(StdDev, mod), Deterministic, RoleStdDev,
			fmt.Sprintf("sqrt(1/%s)", tau[j].Name), tau[j])
		for _, v := range []*Variable{slope[j], icept[j], tau[j], s} {
			v.Modality = j
		}
	}

	for i := 0; i < nObs; i++ {
		for j := 0; j < m.Modalities; j++ {
			mu := g.add(fmt.Sprintf("mu[%d,%d]", i+1, j+1), Deterministic, RoleMean,
				fmt.Sprintf("%s * %s + %s", slope[j].Name, latent[i].Name, icept[j].Name),
				slope[j], latent[i], icept[j])
			y := g.add(fmt.Sprintf("y[%d,%d]", i+1, j+1), Observed, RoleData,
				fmt.Sprintf("dnorm(%s, %s)", mu.Name, tau[j].Name),
				mu, tau[j])
			mu.Subject, mu.Modality = i, j
			y.Subject, y.Modality = i, j
		}
	}

	if err := g.Check(); err != nil {
		return nil, errors.Wrapf(err, "model %s built an invalid graph", m.Name)
	}
	return g, nil
}

// Lookup returns the named variable or nil
func (g *Graph) Lookup(name string) *Variable {
	return g.byName[name]
}

// Children returns the direct dependents of every variable, indexed by ID
func (g *Graph) Children() [][]*Variable {
	children := make([][]*Variable, len(g.Vars))
	for _, v := range g.Vars {
		for _, p := range v.Parents {
			children[p.ID] = append(children[p.ID], v)
		}
	}
	return children
}

// Check returns an error if the graph has duplicate IDs or names, invalid
// nodes, or a cycle
func (g *Graph) Check() error {
	names := make(map[string]bool, len(g.Vars))
	for i, v := range g.Vars {
		if v.ID != i {
			return errors.Errorf("Var %s has ID %d != idx %d", v.Name, v.ID, i)
		}
		if names[v.Name] {
			return errors.Errorf("Duplicate name %s", v.Name)
		}
		names[v.Name] = true

		if err := v.Check(); err != nil {
			return err
		}
	}

	_, err := g.TopoOrder()
	return err
}

// TopoOrder returns the variables ordered so that every parent comes before
// its children (Kahn's algorithm). A cycle is an error.
func (g *Graph) TopoOrder() ([]*Variable, error) {
	indegree := make([]int, len(g.Vars))
	for _, v := range g.Vars {
		indegree[v.ID] = len(v.Parents)
	}
	children := g.Children()

	queue := make([]*Variable, 0, len(g.Vars))
	for _, v := range g.Vars {
		if indegree[v.ID] == 0 {
			queue = append(queue, v)
		}
	}

	order := make([]*Variable, 0, len(g.Vars))
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for _, c := range children[v.ID] {
			indegree[c.ID]--
			if indegree[c.ID] == 0 {
				queue = append(queue, c)
			}
		}
	}

	if len(order) != len(g.Vars) {
		return nil, errors.Errorf("Graph has a cycle: only %d of %d vars ordered", len(order), len(g.Vars))
	}
	return order, nil
}

// FreeVars returns the stochastic, unobserved variables in topological order
func (g *Graph) FreeVars() ([]*Variable, error) {
	order, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}

	free := make([]*Variable, 0, len(order))
	for _, v := range order {
		if v.Free() {
			free = append(free, v)
		}
	}
	return free, nil
}
