package build

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/stubgen/errors"
)

// SelectVersions returns the tags satisfying constraint, oldest first.
// Tags that are not semantic versions (release candidates named
// "v2.93-rc", branch markers) are ignored.
func SelectVersions(tags []string, constraint string) ([]string, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "invalid version constraint %q", constraint),
			"use a constraint such as \">= 2.93, < 4.0\"")
	}

	type tagged struct {
		tag string
		v   *semver.Version
	}
	var matched []tagged
	for _, tag := range tags {
		v, err := semver.NewVersion(tag)
		if err != nil || v.Prerelease() != "" {
			continue
		}
		if c.Check(v) {
			matched = append(matched, tagged{tag, v})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].v.LessThan(matched[j].v)
	})
	out := make([]string, len(matched))
	for i, m := range matched {
		out[i] = m.tag
	}
	return out, nil
}
