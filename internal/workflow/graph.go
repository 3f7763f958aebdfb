package workflow

import (
	"fmt"
)

// CheckIntegrity verifies that node ids are unique and non-empty and that
// every link endpoint references a declared node
func (d *Definition) CheckIntegrity() error {
	ids := make(map[string]bool, len(d.Nodes))
	for _, spec := range d.Nodes {
		if spec.ID == "" {
			return &GraphIntegrityError{Msg: "node with empty id"}
		}
		if ids[spec.ID] {
			return &GraphIntegrityError{Msg: fmt.Sprintf("duplicate node id %s", spec.ID)}
		}
		ids[spec.ID] = true
	}

	for _, link := range d.Links {
		if !ids[link.SourceID] {
			return &GraphIntegrityError{Msg: fmt.Sprintf("link references undeclared source node %s", link.SourceID)}
		}
		if !ids[link.TargetID] {
			return &GraphIntegrityError{Msg: fmt.Sprintf("link references undeclared target node %s", link.TargetID)}
		}
	}

	return nil
}

// ResolveLeafOutputAddresses computes the externally observable output
// addresses of the graph. A leaf node is one that never appears as a
// link's source: nothing inside the graph consumes its output. Each leaf
// contributes one address per declared output variable. Pure function of
// the graph structure, no I/O.
func ResolveLeafOutputAddresses(d *Definition) (map[string]Address, error) {
	if err := d.CheckIntegrity(); err != nil {
		return nil, err
	}

	sources := make(map[string]bool, len(d.Links))
	for _, link := range d.Links {
		sources[link.SourceID] = true
	}

	addresses := make(map[string]Address)
	for _, spec := range d.Nodes {
		if sources[spec.ID] {
			continue
		}
		for _, variable := range spec.Config.OutputVariables {
			addr := Address{NodeID: spec.ID, Variable: variable}
			addresses[addr.String()] = addr
		}
	}

	return addresses, nil
}

// TopologicalOrder returns node ids in execution order. Unlike address
// resolution, running the graph does require it to be a DAG.
func (d *Definition) TopologicalOrder() ([]string, error) {
	targets := make(map[string][]string, len(d.Nodes))
	for _, link := range d.Links {
		targets[link.SourceID] = append(targets[link.SourceID], link.TargetID)
	}

	visited := make(map[string]bool)
	temp := make(map[string]bool)
	order := make([]string, 0, len(d.Nodes))

	var visit func(string) error
	visit = func(nodeID string) error {
		if temp[nodeID] {
			return fmt.Errorf("cycle detected in workflow graph at node %s", nodeID)
		}
		if visited[nodeID] {
			return nil
		}
		temp[nodeID] = true

		for _, neighbor := range targets[nodeID] {
			if err := visit(neighbor); err != nil {
				return err
			}
		}

		temp[nodeID] = false
		visited[nodeID] = true
		order = append([]string{nodeID}, order...)
		return nil
	}

	// Nodes are visited in declaration order so the result is stable.
	for _, spec := range d.Nodes {
		if !visited[spec.ID] {
			if err := visit(spec.ID); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// Upstream returns the ids of every node with a link into the given node,
// in link declaration order
func (d *Definition) Upstream(nodeID string) []string {
	var upstream []string
	for _, link := range d.Links {
		if link.TargetID == nodeID {
			upstream = append(upstream, link.SourceID)
		}
	}
	return upstream
}
