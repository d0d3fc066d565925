package health

// NoReference is used when every reference source failed. Any
// non-negative node height then satisfies the height comparison.
const NoReference int64 = -1

// IsSynced reports whether a node is caught up with the network: it may trail
// the reference by at most tolerance blocks. Being ahead is always fine.
func IsSynced(nodeHeight, referenceHeight, tolerance int64) bool {
	return nodeHeight >= referenceHeight-tolerance
}

// BestReference returns the highest successfully fetched reference height,
// or NoReference when none succeeded.
func BestReference(heights []int64, errs []error) int64 {
	best := NoReference
	for i, h := range heights {
		if i < len(errs) && errs[i] != nil {
			continue
		}
		if h > best {
			best = h
		}
	}
	return best
}
