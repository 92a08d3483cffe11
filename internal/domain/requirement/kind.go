package requirement

// Kind identifies the provisioning strategy family a requirement belongs
// to. Providers declare which kinds they can handle; the registry
// dispatches on it.
type Kind string

const (
	// KindEnvSpec is a language runtime environment specification.
	KindEnvSpec Kind = "env-spec"
	// KindPackageEnv is a package-manager environment with a package list.
	KindPackageEnv Kind = "package-env"
	// KindDownload is a downloaded data artifact (URL plus checksum).
	KindDownload Kind = "download"
	// KindService is a running background service.
	KindService Kind = "service"
	// KindEnvVar is an exported environment variable.
	KindEnvVar Kind = "env-var"
	// KindVariable is a generic user-supplied variable.
	KindVariable Kind = "variable"
)

// knownKinds is the set of kinds a project definition may declare.
var knownKinds = map[Kind]bool{
	KindEnvSpec:    true,
	KindPackageEnv: true,
	KindDownload:   true,
	KindService:    true,
	KindEnvVar:     true,
	KindVariable:   true,
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Known returns true if the kind is one the system understands.
func (k Kind) Known() bool {
	return knownKinds[k]
}
