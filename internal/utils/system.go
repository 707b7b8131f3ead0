package utils

import (
	"os"
	"os/user"
	"regexp"
	"strings"
)

var (
	invalidDeviceChars = regexp.MustCompile(`[^a-z0-9\-_]`)
	repeatedHyphens    = regexp.MustCompile(`-+`)
)

// GetHostname returns the system hostname.
func GetHostname() (string, error) {
	return os.Hostname()
}

// SanitizeDeviceName sanitizes a device name by removing special characters and converting spaces to hyphens.
func SanitizeDeviceName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "-")
	name = invalidDeviceChars.ReplaceAllString(name, "")
	name = repeatedHyphens.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	// If empty after sanitization, use a default.
	if name == "" {
		name = "device"
	}
	return name
}

// DefaultDeviceName derives a device name from the hostname, falling back to
// the username and then to "device".
func DefaultDeviceName() string {
	if hostname, err := GetHostname(); err == nil && hostname != "" {
		return SanitizeDeviceName(hostname)
	}
	if u, err := user.Current(); err == nil {
		return SanitizeDeviceName(u.Username)
	}
	return "device"
}
