package platform

// SplitPlaylist returns the first entry of a playlist as the primary target
// and the ids of the remaining entries as its siblings. primary is nil for an
// empty playlist.
func SplitPlaylist(playlist *ExtractedInfo) (primary *ExtractedInfo, siblings []string) {
	for i, entry := range playlist.Entries {
		if entry == nil {
			continue
		}
		for _, rest := range playlist.Entries[i+1:] {
			if rest != nil && rest.ID != "" {
				siblings = append(siblings, rest.ID)
			}
		}
		return entry, siblings
	}
	return nil, nil
}

// MergeSiblings appends playlist siblings after the ones produced upstream,
// dropping empties and duplicates while keeping order. The primary id is
// never listed as its own sibling.
func MergeSiblings(primaryID string, upstream, playlist []string) []string {
	seen := map[string]bool{primaryID: true}
	var out []string
	for _, list := range [][]string{upstream, playlist} {
		for _, id := range list {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
