package buildinfo

// These variables will be set at build time using ldflags
var (
	Version   = "dev"
	Commit    string
	BuildDate string

	// BuildEnvironment selects the default config profile (sandbox or production)
	BuildEnvironment = "sandbox"
)

// String renders the version line shown by the version command
func String() string {
	s := Version
	if Commit != "" {
		s += " (" + Commit + ")"
	}
	if BuildDate != "" {
		s += " built " + BuildDate
	}
	return s
}
