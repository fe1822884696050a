package holders

// connectedGroups partitions holders into groups linked by shared recent
// transaction signatures. Two holders are edge-connected when their signature
// sets intersect; connectivity is transitive via breadth-first traversal.
// Only groups with at least 2 members are returned. Each holder belongs to at
// most one group.
func connectedGroups(nodes []*holderNode) [][]int {
	n := len(nodes)
	if n < 2 {
		return nil
	}

	// Build the adjacency structure once instead of rescanning pairs
	// during traversal. Sample sizes are bounded at 50 so O(n^2) set
	// intersection is fine.
	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sigsOverlap(nodes[i].recentSigs, nodes[j].recentSigs) {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}

	visited := make([]bool, n)
	var groups [][]int

	for start := 0; start < n; start++ {
		if visited[start] || len(adj[start]) == 0 {
			continue
		}

		var group []int
		queue := []int{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			group = append(group, cur)
			for _, next := range adj[cur] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}

		if len(group) >= 2 {
			groups = append(groups, group)
		}
	}

	return groups
}

func sigsOverlap(a, b map[string]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	// Iterate the smaller set.
	if len(b) < len(a) {
		a, b = b, a
	}
	for sig := range a {
		if _, ok := b[sig]; ok {
			return true
		}
	}
	return false
}
