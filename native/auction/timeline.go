package auction

// Per-user epoch lists are sparse sets, not ordered histories: removal swaps
// the target with the last element and truncates, so callers must not depend
// on list order. Membership and O(1) insert/remove are the only guarantees.

// appendEpoch adds id to the list unless it is already present. The second
// return reports whether the list changed.
func appendEpoch(list []uint64, id uint64) ([]uint64, bool) {
	for _, existing := range list {
		if existing == id {
			return list, false
		}
	}
	return append(list, id), true
}

// removeEpoch drops id from the list via swap-with-last. The second return
// reports whether the id was found.
func removeEpoch(list []uint64, id uint64) ([]uint64, bool) {
	for i, existing := range list {
		if existing == id {
			last := len(list) - 1
			list[i] = list[last]
			return list[:last], true
		}
	}
	return list, false
}
