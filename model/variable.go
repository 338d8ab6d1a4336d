package model

import (
	"strconv"

	"github.com/pkg/errors"
)

// NodeType says how a variable's value is determined
type NodeType int

// Node types in the dependency graph
const (
	Stochastic    NodeType = iota // Sampled from a distribution given its parents
	Deterministic                 // A function of its parents
	Observed                      // Stochastic, but fixed to data
)

func (t NodeType) String() string {
	switch t {
	case Stochastic:
		return "stochastic"
	case Deterministic:
		return "deterministic"
	case Observed:
		return "observed"
	}
	return "NodeType(" + strconv.Itoa(int(t)) + ")"
}

// Role is what a variable stands for in the linear observation model. The
// sampler dispatches its updates on Role.
type Role int

// Variable roles
const (
	RoleLatent    Role = iota // x[i]
	RoleSlope                 // a[m]
	RoleIntercept             // b[m]
	RolePrecision             // tau[m]
	RoleStdDev                // s[m] = sqrt(1/tau[m])
	RoleMean                  // mu[i,m] = a[m]*x[i] + b[m]
	RoleData                  // y[i,m]
)

// Variable represents a single node in the model's dependency graph
type Variable struct {
	ID       int         // Position in the graph's Vars
	Name     string      // e.g. a[2], mu[4,2]
	Type     NodeType    // How the value is determined
	Role     Role        // What the node stands for
	Subject  int         // 0-based subject index, -1 if not per subject
	Modality int         // 0-based modality index, -1 if not per modality
	Dist     string      // Distribution or expression, for display
	Parents  []*Variable // Direct dependencies
}

// NewVariable is our standard way to create a graph node
func NewVariable(id int, name string, t NodeType, role Role) (*Variable, error) {
	if id < 0 {
		return nil, errors.Errorf("Invalid id %d for variable %s", id, name)
	}
	if len(name) < 1 {
		return nil, errors.Errorf("Variable %d has no name", id)
	}

	return &Variable{
		ID:       id,
		Name:     name,
		Type:     t,
		Role:     role,
		Subject:  -1,
		Modality: -1,
	}, nil
}

// Clone returns a copy of the variable. Parents are shared, not copied.
func (v *Variable) Clone() *Variable {
	cp := *v
	cp.Parents = make([]*Variable, len(v.Parents))
	copy(cp.Parents, v.Parents)
	return &cp
}

// Check returns an error if any problem is found
func (v *Variable) Check() error {
	if v.Type == Deterministic && len(v.Parents) < 1 {
		return errors.Errorf("Deterministic variable %s has no parents", v.Name)
	}
	if v.Type == Observed && v.Subject < 0 {
		return errors.Errorf("Observed variable %s has no subject", v.Name)
	}
	for _, p := range v.Parents {
		if p == nil {
			return errors.Errorf("Variable %s has a nil parent", v.Name)
		}
		if p == v {
			return errors.Errorf("Variable %s is its own parent", v.Name)
		}
	}
	return nil
}

// Free is true for variables the sampler must draw: stochastic and not fixed
// by data
func (v *Variable) Free() bool {
	return v.Type == Stochastic
}
