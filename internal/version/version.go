package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-series/pkg/errors"
)

// Version is the current version of argo-series.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-series/internal/version.Version=0.3.0"
// The value "main" marks a development build.
var Version = "main"

// GetVersion returns the current version of the binary.
func GetVersion() string {
	return Version
}

// CheckRequirement reports whether current satisfies constraint, a semver range such as
// ">= 0.2, < 1.0" taken from a job configuration. An empty constraint always passes, and
// so does the development build "main".
func CheckRequirement(constraint, current string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return nil
	}

	current = strings.TrimPrefix(current, "v")
	if current == "main" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid version requirement %q", constraint)
	}

	v, err := semver.NewVersion(current)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid version %q", current)
	}

	if ok, reasons := c.Validate(v); !ok {
		message := "version " + v.String() + " does not satisfy " + constraint
		if len(reasons) > 0 {
			message += ": " + reasons[0].Error()
		}

		return errors.New(errors.ErrCodeInvalidConfiguration, message)
	}

	return nil
}
