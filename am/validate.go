package am

import (
	"github.com/Masterminds/semver/v3"

	"github.com/teranos/stubgen/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Generate.OutputDir == "" {
		return errors.New("generate.output_dir cannot be empty")
	}

	// Workers: 0 means sequential, negative is invalid
	if c.Generate.Workers < 0 {
		return errors.Newf("generate.workers must be >= 0, got %d", c.Generate.Workers)
	}

	for i, corr := range c.Generate.Corrections {
		if corr.Struct == "" || corr.Property == "" || corr.Type == "" {
			return errors.Newf("generate.corrections[%d] needs struct, property and type", i)
		}
	}

	if c.Host.TimeoutSeconds < 0 {
		return errors.Newf("host.timeout_seconds must be >= 0, got %d", c.Host.TimeoutSeconds)
	}

	// Build jobs: 0 = logical CPU count, negative is invalid
	if c.Build.Jobs < 0 {
		return errors.Newf("build.jobs must be >= 0, got %d", c.Build.Jobs)
	}

	if c.Build.Versions != "" && len(c.Build.Tags) == 0 {
		if _, err := semver.NewConstraint(c.Build.Versions); err != nil {
			return errors.WithHint(
				errors.Wrapf(err, "build.versions %q is not a version constraint", c.Build.Versions),
				`use a semver constraint such as ">= 2.93, < 3.0"`,
			)
		}
	}

	return nil
}
