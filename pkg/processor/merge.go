package processor

// ShouldSkip reports whether an item with these tags is left alone
func ShouldSkip(tags []string, threshold int) bool {
	return len(tags) >= threshold
}

// MergeTags returns the union of existing and proposed. Order is first
// seen, existing first. Tags are compared exactly; empty strings are dropped.
func MergeTags(existing, proposed []string) []string {
	merged := make([]string, 0, len(existing)+len(proposed))
	seen := make(map[string]struct{}, len(existing)+len(proposed))

	for _, list := range [][]string{existing, proposed} {
		for _, tag := range list {
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			merged = append(merged, tag)
		}
	}
	return merged
}
