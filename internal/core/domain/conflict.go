package domain

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// Conflict records two concurrent, differing resolutions of the same package.
// Kept is the resolution that survived the merge.
type Conflict struct {
	Name      string
	Kept      PackageResolution
	Discarded PackageResolution
}

// Description renders the conflict for diagnostics.
func (c Conflict) Description() string {
	return fmt.Sprintf("%s: kept %s, discarded %s", c.Name, c.Kept.Version, c.Discarded.Version)
}

func (c Conflict) key() string {
	return strings.Join([]string{
		c.Name,
		resolutionKey(c.Kept),
		resolutionKey(c.Discarded),
	}, "|")
}

func resolutionKey(p PackageResolution) string {
	return fmt.Sprintf("%s@%s#%s<%s>%s",
		p.Name, p.Version, hex.EncodeToString(p.Integrity[:]), p.TarballURL,
		strings.Join(p.DependencyNames(), ","))
}

// mergeConflicts unions conflict lists, dropping duplicates, sorted by name.
func mergeConflicts(lists ...[]Conflict) []Conflict {
	seen := make(map[string]struct{})
	var out []Conflict
	for _, list := range lists {
		for _, c := range list {
			k := c.key()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b Conflict) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.key(), b.key())
	})
	return out
}
