package binning

// coords is an in-memory Source used by the tests.
type coords struct {
	m, n    int
	entries [][2]int
}

func (c *coords) Dims() (int, int) { return c.m, c.n }

func (c *coords) Scan(fn func(row, col int) error) error {
	for _, e := range c.entries {
		if err := fn(e[0], e[1]); err != nil {
			return err
		}
	}
	return nil
}

// shardedCoords splits its entries round-robin.
type shardedCoords struct {
	coords
	finished int
}

func (s *shardedCoords) Shards(n int) []Source {
	parts := make([]*coords, n)
	for i := range parts {
		parts[i] = &coords{m: s.m, n: s.n}
	}
	for i, e := range s.entries {
		parts[i%n].entries = append(parts[i%n].entries, e)
	}
	out := make([]Source, n)
	for i, p := range parts {
		out[i] = p
	}
	return out
}

func (s *shardedCoords) Finish() error {
	s.finished++
	return nil
}

func block(r0, r1, c0, c1 int) [][2]int {
	var out [][2]int
	for i := r0; i < r1; i++ {
		for j := c0; j < c1; j++ {
			out = append(out, [2]int{i, j})
		}
	}
	return out
}
