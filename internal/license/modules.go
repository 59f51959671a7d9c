package license

import "fmt"

// moduleDependencies is the adjacency list from a module to its direct
// prerequisites. Core modules have none; premium modules may require core
// modules or other premium modules. The graph must stay acyclic: init
// asserts it, and the DFS below keeps a visited set as a second line of
// defense should a cycle ever slip in.
var moduleDependencies = map[ModuleCode][]ModuleCode{
	ModuleScheduling:    {},
	ModulePatients:      {},
	ModuleBilling:       {},
	ModuleClinicalBasic: {},

	ModuleClinicalAdvanced: {ModuleClinicalBasic},
	ModuleTeledentistry:    {ModuleScheduling, ModuleClinicalBasic},
	ModuleLabIntegration:   {ModuleClinicalAdvanced},
	ModuleAnalytics:        {ModuleBilling, ModulePatients},
	ModuleMarketing:        {ModulePatients},
	ModuleMultiLocation:    {ModuleScheduling, ModuleBilling},
}

func init() {
	if err := checkAcyclic(); err != nil {
		panic(err)
	}
}

func checkAcyclic() error {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[ModuleCode]int, len(moduleDependencies))
	var visit func(m ModuleCode) error
	visit = func(m ModuleCode) error {
		switch state[m] {
		case inProgress:
			return fmt.Errorf("license: module dependency cycle through %s", m)
		case done:
			return nil
		}
		state[m] = inProgress
		for _, dep := range moduleDependencies[m] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[m] = done
		return nil
	}
	for m := range moduleDependencies {
		if err := visit(m); err != nil {
			return err
		}
	}
	return nil
}

// Dependencies returns the direct prerequisites of a module. Unknown modules
// have none.
func Dependencies(m ModuleCode) []ModuleCode {
	deps := moduleDependencies[m]
	out := make([]ModuleCode, len(deps))
	copy(out, deps)
	return out
}

// AllDependencies returns the transitive prerequisite closure of a module in
// depth-first order, without duplicates.
func AllDependencies(m ModuleCode) []ModuleCode {
	visited := map[ModuleCode]bool{m: true}
	var out []ModuleCode
	var walk func(code ModuleCode)
	walk = func(code ModuleCode) {
		for _, dep := range moduleDependencies[code] {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			out = append(out, dep)
			walk(dep)
		}
	}
	walk(m)
	return out
}

// MissingDependencies diffs the direct prerequisites of m against the
// subscription's enabled module set.
func MissingDependencies(m ModuleCode, sub *Subscription) []ModuleCode {
	return missing(Dependencies(m), sub)
}

// AllMissingDependencies diffs the transitive prerequisite closure of m
// against the subscription's enabled module set.
func AllMissingDependencies(m ModuleCode, sub *Subscription) []ModuleCode {
	return missing(AllDependencies(m), sub)
}

func missing(required []ModuleCode, sub *Subscription) []ModuleCode {
	out := make([]ModuleCode, 0, len(required))
	for _, dep := range required {
		if !sub.HasModule(dep) {
			out = append(out, dep)
		}
	}
	return out
}
