package messages

// Merge produces the effective EntryList from a base list (parsed from a
// remote template) and the locally declared overrides.
//
// The base order always wins: an override for a key present in base replaces
// the base entry in place, and override-only keys are appended afterwards in
// their declared order. Both lists are normalized first, so a key declared
// twice keeps its last declaration. With an empty base the overrides are
// returned alone. Merge never mutates its inputs.
func Merge(base, overrides EntryList) EntryList {
	base, overrides = Normalize(base), Normalize(overrides)
	if len(base) == 0 {
		return overrides
	}
	if len(overrides) == 0 {
		return base
	}

	byKey := make(map[string]*Entry, len(overrides))
	for _, entry := range overrides {
		byKey[entry.Key] = entry
	}

	out := make(EntryList, 0, len(base)+len(overrides))
	used := make(map[string]struct{}, len(base))
	for _, entry := range base {
		used[entry.Key] = struct{}{}
		if override, ok := byKey[entry.Key]; ok {
			out = append(out, override)
			continue
		}
		out = append(out, entry)
	}

	for _, entry := range overrides {
		if _, seen := used[entry.Key]; seen {
			continue
		}
		out = append(out, entry)
	}
	return out
}
