// Package buildinfo carries build-time metadata stamped through ldflags,
// kept apart from user configuration.
package buildinfo

// UnknownValue is returned for metadata the build did not stamp.
const UnknownValue = "unknown"

// Context holds build-time metadata. Fields are stamped by the linker at
// release time and are not user-configurable.
type Context struct {
	version   string
	buildDate string
}

// NewContext creates a build metadata context. Empty values read back as
// UnknownValue.
func NewContext(version, buildDate string) *Context {
	return &Context{
		version:   version,
		buildDate: buildDate,
	}
}

// Version returns the stamped version tag, or UnknownValue for unstamped
// builds.
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns the stamped build timestamp, or UnknownValue.
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}
