package resolve

// Options carries caller-supplied knobs for one resolution run.
type Options struct {
	// ForceRelock lets locked entries overwrite user-provided ones.
	// Only an explicit relock operation sets this.
	ForceRelock bool

	// AllowNetwork permits providers to reach the network. With it
	// unset, providers whose provisioning needs the network fail
	// instead of degrading silently.
	AllowNetwork bool

	// RequireAll upgrades any failed requirement to an overall blocking
	// failure instead of a partial result.
	RequireAll bool

	// CheckOnly performs planning and checking but never provisions.
	CheckOnly bool

	// ConcurrentChecks bounds how many independent checks run at once
	// during the checking phase. Values below 2 keep checking strictly
	// sequential; provisioning is always sequential in plan order.
	ConcurrentChecks int

	// ProjectDir is the project root, the base for relative artifact
	// paths.
	ProjectDir string
}

// DefaultOptions returns the options a plain prepare run uses.
func DefaultOptions() Options {
	return Options{
		AllowNetwork:     true,
		ConcurrentChecks: 4,
	}
}
