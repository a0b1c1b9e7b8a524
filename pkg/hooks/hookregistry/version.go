package hookregistry

import (
	"github.com/Masterminds/semver/v3"

	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
)

// ValidateVersion checks that a hook's metadata.version is a well-formed
// semantic version, catching malformed values before they are persisted
// to the registry or a hook config file.
func ValidateVersion(version string) error {
	if _, err := semver.NewVersion(version); err != nil {
		return hookerrors.New("validate_version", hookerrors.KindValidation, err).WithID(version)
	}
	return nil
}
