package pipeline

import (
	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/internal/sources"
)

// DefaultClusterThreshold is the title Jaccard similarity at which two
// articles are treated as reports of the same story.
const DefaultClusterThreshold = 0.5

// CrossSourceCounts groups articles whose titles overlap by at least
// threshold (transitively) and returns, for each article, the number of
// distinct sources in its group. Every count is at least 1.
func CrossSourceCounts(articles []sources.Article, threshold float64) []int {
	n := len(articles)
	sets := make([]map[string]struct{}, n)
	for i, a := range articles {
		sets[i] = quality.Set(quality.Tokenize(a.Title))
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if quality.Jaccard(sets[i], sets[j]) >= threshold {
				if ri, rj := find(i), find(j); ri != rj {
					parent[rj] = ri
				}
			}
		}
	}

	groupSources := make(map[int]map[string]struct{})
	for i, a := range articles {
		root := find(i)
		if groupSources[root] == nil {
			groupSources[root] = make(map[string]struct{})
		}
		groupSources[root][a.SourceName()] = struct{}{}
	}

	counts := make([]int, n)
	for i := range articles {
		counts[i] = max(1, len(groupSources[find(i)]))
	}
	return counts
}
