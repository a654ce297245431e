package models

import (
	"fmt"
)

// NodeFilter is a function type used to filter nodes in queries
type NodeFilter func(node *NodeState) bool

// FindNode returns a node of the frame by its ID
func (f *Frame) FindNode(id int) (*NodeState, error) {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("node with ID %d not found", id)
}

// Neighbors returns the IDs of all nodes sharing an edge with id
func (f *Frame) Neighbors(id int) []int {
	var result []int
	for _, e := range f.Edges {
		if e.Source == id {
			result = append(result, e.Target)
		}
		if e.Target == id {
			result = append(result, e.Source)
		}
	}
	return result
}

// FilterNodes returns nodes that match the provided filter function
func (f *Frame) FilterNodes(filter NodeFilter) []NodeState {
	var result []NodeState
	for i := range f.Nodes {
		if filter(&f.Nodes[i]) {
			result = append(result, f.Nodes[i])
		}
	}
	return result
}
