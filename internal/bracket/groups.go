package bracket

import "slices"

// Groups splits seeds 1..n into ceil(n/size) groups. The group size is first
// reduced to the smallest size that still needs the same number of groups,
// then seeds are dealt in snake order so every group gets a near-equal seed
// sum. At most one slot per group is left unfilled. Each group is sorted.
func Groups(n, size int) [][]int {
	if n <= 0 || size <= 0 {
		return nil
	}
	numGroups := ceilDiv(n, size)
	size = ceilDiv(n, numGroups)

	groups := make([][]int, numGroups)
	for i := range numGroups * size {
		seed := i + 1
		if seed > n {
			break
		}
		row, col := i/numGroups, i%numGroups
		g := col
		if row%2 == 1 {
			g = numGroups - 1 - col
		}
		groups[g] = append(groups[g], seed)
	}
	for _, g := range groups {
		slices.Sort(g)
	}
	return groups
}

// reducedGroupSize is the largest group Groups(n, size) produces.
func reducedGroupSize(n, size int) int {
	return ceilDiv(n, ceilDiv(n, size))
}

// smallestGroupSize is the smallest group Groups(n, size) produces.
func smallestGroupSize(n, size int) int {
	return n / ceilDiv(n, size)
}

// RoundRobin schedules every pairing of players using the circle method.
// Odd counts get a dummy opponent whose matches are dropped. Home and away
// are flipped for the fixed player on odd rounds so everyone gets a fair
// share of first-named matches.
func RoundRobin(players []int) [][][2]int {
	ps := slices.Clone(players)
	const dummy = -1
	if len(ps)%2 == 1 {
		ps = append(ps, dummy)
	}
	n := len(ps)
	if n < 2 {
		return nil
	}

	rounds := make([][][2]int, 0, n-1)
	for j := range n - 1 {
		var rnd [][2]int
		for i := range n / 2 {
			o := n - 1 - i
			if ps[i] == dummy || ps[o] == dummy {
				continue
			}
			if i == 0 && j%2 == 1 {
				rnd = append(rnd, [2]int{ps[o], ps[i]})
			} else {
				rnd = append(rnd, [2]int{ps[i], ps[o]})
			}
		}
		rounds = append(rounds, rnd)

		// rotate all but the first
		last := ps[n-1]
		copy(ps[2:], ps[1:n-1])
		ps[1] = last
	}
	return rounds
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
