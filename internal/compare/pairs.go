package compare

import (
	"slices"
	"snapshot-comparator/internal/storage"
)

// Pair is an original image location and its latest counterpart.
type Pair struct {
	Original string `json:"original"`
	Latest   string `json:"latest"`
}

// PairFiles joins the two listings on their root-relative paths. Pairs keep
// the order of originals. Unpaired images are reported relative to their root,
// except for locations not below it, which are reported in full.
func PairFiles(s storage.Storage, roots Roots, originals []string, latests []string) ([]Pair, error) {
	if len(originals) != len(latests) {
		return nil, &ImageCountMismatchError{
			Original: len(originals),
			Latest:   len(latests),
		}
	}

	latestByRelative := make(map[string]string, len(latests))
	var onlyLatest, outside []string
	for _, location := range latests {
		rel, ok := s.Relative(roots.Latest, location)
		if !ok {
			outside = append(outside, location)
			continue
		}
		latestByRelative[rel] = location
	}

	pairs := make([]Pair, 0, len(originals))
	var onlyOriginal []string
	for _, location := range originals {
		rel, ok := s.Relative(roots.Original, location)
		if !ok {
			outside = append(outside, location)
			continue
		}

		latest, found := latestByRelative[rel]
		if !found {
			onlyOriginal = append(onlyOriginal, rel)
			continue
		}
		delete(latestByRelative, rel)

		pairs = append(pairs, Pair{
			Original: location,
			Latest:   latest,
		})
	}

	for rel := range latestByRelative {
		onlyLatest = append(onlyLatest, rel)
	}

	if len(onlyOriginal) > 0 || len(onlyLatest) > 0 || len(outside) > 0 {
		slices.Sort(onlyOriginal)
		slices.Sort(onlyLatest)
		slices.Sort(outside)
		return nil, &ImageNotPairedError{
			Original: onlyOriginal,
			Latest:   onlyLatest,
			Outside:  outside,
		}
	}

	return pairs, nil
}
