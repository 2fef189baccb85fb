package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStage marks a connection endpoint that names no stage.
	ErrUnknownStage = errors.New("graph: connection references unknown stage")
	// ErrCycle marks a pipeline whose connections form a cycle.
	ErrCycle = errors.New("graph: cycle detected")
)

// LinearConnections chains stages in declaration order.
func LinearConnections(stages []Stage) []Connection {
	if len(stages) < 2 {
		return []Connection{}
	}
	conns := make([]Connection, 0, len(stages)-1)
	for i := 1; i < len(stages); i++ {
		conns = append(conns, Connection{From: stages[i-1].Name, To: stages[i].Name})
	}
	return conns
}

// CheckConnections verifies every connection endpoint names a stage.
func CheckConnections(c *Config) error {
	known := make(map[string]struct{}, len(c.Stages))
	for _, s := range c.Stages {
		known[s.Name] = struct{}{}
	}
	for _, conn := range c.Connections {
		for _, end := range []string{conn.From, conn.To} {
			if _, ok := known[end]; !ok {
				return fmt.Errorf("%w %q", ErrUnknownStage, end)
			}
		}
	}
	return nil
}

// Levels groups stages by dependency depth using Kahn's algorithm. Stages
// in the same level have no path between them. Order within a level follows
// declaration order.
func Levels(c *Config) ([][]string, error) {
	if err := CheckConnections(c); err != nil {
		return nil, err
	}

	inDegree := make(map[string]int, len(c.Stages))
	dependents := make(map[string][]string)
	for _, s := range c.Stages {
		inDegree[s.Name] = 0
	}
	for _, e := range c.Connections {
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	var queue []string
	for _, s := range c.Stages {
		if inDegree[s.Name] == 0 {
			queue = append(queue, s.Name)
		}
	}

	var levels [][]string
	visited := 0
	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(inDegree) {
		return nil, fmt.Errorf("%w: ordered %d of %d stages", ErrCycle, visited, len(inDegree))
	}
	return levels, nil
}
