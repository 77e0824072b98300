package config

import "fmt"

// The following vars are set with -ldflags "-X ..." at build time.
var (
	ModuleName = "hdwallet-provider"
	Commit     = "< 40 chars git commit hash via ldflags >"
	BuildDate  = "-"
)

// GetFormattedBuildArgs returns the version string printed by --version.
func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}
