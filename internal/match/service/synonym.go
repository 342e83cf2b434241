package service

import "sort"

// buildSynonymIndex expands the configured synonym pairs into a symmetric,
// transitively closed lookup: if a→b and b→c are configured, each of a, b, c
// maps to the other two. Closure happens once at engine construction, so a
// match-time lookup is a single map access.
func buildSynonymIndex(pairs map[string]string) map[string][]string {
	if len(pairs) == 0 {
		return map[string][]string{}
	}

	adj := map[string]map[string]bool{}
	link := func(a, b string) {
		if adj[a] == nil {
			adj[a] = map[string]bool{}
		}
		adj[a][b] = true
	}
	for a, b := range pairs {
		if a == "" || b == "" || a == b {
			continue
		}
		link(a, b)
		link(b, a)
	}

	index := map[string][]string{}
	visited := map[string]bool{}
	for start := range adj {
		if visited[start] {
			continue
		}
		component := []string{}
		stack := []string{start}
		visited[start] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, cur)
			for next := range adj[cur] {
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}
		sort.Strings(component)
		for _, term := range component {
			others := make([]string, 0, len(component)-1)
			for _, o := range component {
				if o != term {
					others = append(others, o)
				}
			}
			index[term] = others
		}
	}
	return index
}
