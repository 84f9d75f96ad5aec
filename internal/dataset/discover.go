package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
)

var inputRegexp = regexp.MustCompile(`^(rule_matches|rule_labels|features|dev_features|dev_labels)\.(csv|bin)$`)

// Paths names the matrix files of one training run.
type Paths struct {
	RuleMatches string
	RuleLabels  string
	Features    string
	DevFeatures string
	DevLabels   string
}

// DiscoverInputs walks root and returns the conventionally named input files.
// When the same input appears more than once the lexically first path wins.
func DiscoverInputs(root string) (Paths, error) {
	entries := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if inputRegexp.MatchString(d.Name()) {
			entries = append(entries, path)
		}
		return nil
	})
	if err != nil {
		return Paths{}, fmt.Errorf("discover inputs: %w", err)
	}
	sort.Strings(entries)

	var p Paths
	for _, path := range entries {
		name := inputRegexp.FindStringSubmatch(filepath.Base(path))[1]
		var slot *string
		switch name {
		case "rule_matches":
			slot = &p.RuleMatches
		case "rule_labels":
			slot = &p.RuleLabels
		case "features":
			slot = &p.Features
		case "dev_features":
			slot = &p.DevFeatures
		case "dev_labels":
			slot = &p.DevLabels
		}
		if *slot == "" {
			*slot = path
		}
	}
	return p, nil
}

// Merge fills empty fields of p from other.
func (p Paths) Merge(other Paths) Paths {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&p.RuleMatches, other.RuleMatches)
	fill(&p.RuleLabels, other.RuleLabels)
	fill(&p.Features, other.Features)
	fill(&p.DevFeatures, other.DevFeatures)
	fill(&p.DevLabels, other.DevLabels)
	return p
}

// Missing lists the inputs that have no path.
func (p Paths) Missing() []string {
	var out []string
	for _, f := range []struct {
		name string
		path string
	}{
		{"rule_matches", p.RuleMatches},
		{"rule_labels", p.RuleLabels},
		{"features", p.Features},
		{"dev_features", p.DevFeatures},
		{"dev_labels", p.DevLabels},
	} {
		if f.path == "" {
			out = append(out, f.name)
		}
	}
	return out
}
