package match

// Deduplicate keeps one snapshot per identity. The survivor has a meaningful
// score over none or 0:0, then the higher format, then arrived first.
// Output follows the first-seen order of each identity.
func Deduplicate(items []Resolved) []Resolved {
	if len(items) == 0 {
		return nil
	}

	out := make([]Resolved, 0, len(items))
	position := make(map[Identity]int, len(items))
	for _, item := range items {
		idx, seen := position[item.Identity]
		if !seen {
			position[item.Identity] = len(out)
			out = append(out, item)
			continue
		}
		if outranks(item.Snapshot, out[idx].Snapshot) {
			out[idx] = item
		}
	}

	return out
}

func outranks(candidate, current Snapshot) bool {
	candidateScored := IsMeaningful(candidate.Score)
	currentScored := IsMeaningful(current.Score)
	if candidateScored != currentScored {
		return candidateScored
	}
	return candidate.Format > current.Format
}
