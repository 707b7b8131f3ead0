package utils

import "regexp"

var validDeviceName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// IsValidDeviceName checks if a device name is valid (alphanumeric, hyphens, underscores).
func IsValidDeviceName(name string) bool {
	return validDeviceName.MatchString(name)
}
