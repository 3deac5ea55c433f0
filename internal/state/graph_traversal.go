package state

// parents returns the parent ids of a commit, primary first.
func (r *Repository) parents(id string) []string {
	c, ok := r.Commit(id)
	if !ok {
		return nil
	}
	var out []string
	if c.Parent != "" {
		out = append(out, c.Parent)
	}
	if c.SecondaryParent != "" {
		out = append(out, c.SecondaryParent)
	}
	return out
}

// Ancestors returns every commit reachable from id, id included, in
// breadth-first order. Parents missing from the list end the walk.
func (r *Repository) Ancestors(id string) []string {
	if _, ok := r.Commit(id); !ok {
		return nil
	}
	visited := map[string]bool{id: true}
	queue := []string{id}
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		for _, p := range r.parents(cur) {
			if visited[p] {
				continue
			}
			if _, ok := r.Commit(p); !ok {
				continue
			}
			visited[p] = true
			queue = append(queue, p)
		}
	}
	return out
}

// IsAncestor reports whether ancestor is reachable from descendant. A commit
// is its own ancestor.
func (r *Repository) IsAncestor(ancestor, descendant string) bool {
	if ancestor == "" || descendant == "" {
		return false
	}
	for _, id := range r.Ancestors(descendant) {
		if id == ancestor {
			return true
		}
	}
	return false
}

// MergeBase returns the nearest common ancestor of a and b, or "" when the
// histories are unrelated.
func (r *Repository) MergeBase(a, b string) string {
	inA := make(map[string]bool)
	for _, id := range r.Ancestors(a) {
		inA[id] = true
	}
	for _, id := range r.Ancestors(b) {
		if inA[id] {
			return id
		}
	}
	return ""
}
