package requirement

import "errors"

// Parameter validation errors.
var (
	ErrMissingURL      = errors.New("download requires a url")
	ErrMissingFilename = errors.New("download requires a filename")
	ErrMissingFlavor   = errors.New("service requires a flavor")
	ErrMissingRuntime  = errors.New("env spec requires a runtime")
	ErrMissingEnvName  = errors.New("package env requires a name")
	ErrNoPackages      = errors.New("package env requires at least one package")
)

// Parameters is the kind-specific immutable descriptor carried by a
// requirement. Each kind has one concrete type below; providers assert
// to the type they handle.
type Parameters interface {
	Validate() error
}

// EnvSpecParams describes a language runtime requirement.
type EnvSpecParams struct {
	// Runtime names the language runtime (e.g., "python").
	Runtime string
	// Version is the required version, may carry an operator prefix
	// as understood by the package manager (e.g., "3.11", ">=3.10").
	Version string
}

// Validate checks the descriptor for malformed values.
func (p EnvSpecParams) Validate() error {
	if p.Runtime == "" {
		return ErrMissingRuntime
	}
	return nil
}

// PackageEnvParams describes a package-manager environment requirement.
type PackageEnvParams struct {
	// Name is the environment name within the project.
	Name string
	// Packages are the package specs to install (name or name=version).
	Packages []string
	// Channels are extra package sources, in priority order.
	Channels []string
}

// Validate checks the descriptor for malformed values.
func (p PackageEnvParams) Validate() error {
	if p.Name == "" {
		return ErrMissingEnvName
	}
	if len(p.Packages) == 0 {
		return ErrNoPackages
	}
	return nil
}

// DownloadParams describes a downloaded data artifact requirement.
type DownloadParams struct {
	// URL is where the artifact is fetched from.
	URL string
	// Filename is the project-relative path the artifact is stored at.
	Filename string
	// Checksum is the expected hex sha256 of the content, empty to skip
	// verification.
	Checksum string
}

// Validate checks the descriptor for malformed values.
func (p DownloadParams) Validate() error {
	if p.URL == "" {
		return ErrMissingURL
	}
	if p.Filename == "" {
		return ErrMissingFilename
	}
	return nil
}

// ServiceParams describes a running background service requirement.
type ServiceParams struct {
	// Flavor is the service type (e.g., "redis").
	Flavor string
}

// Validate checks the descriptor for malformed values.
func (p ServiceParams) Validate() error {
	if p.Flavor == "" {
		return ErrMissingFlavor
	}
	return nil
}

// VariableParams describes a variable requirement, either an exported
// environment variable or a generic user-supplied value.
type VariableParams struct {
	// Default is the value used if nothing is configured, empty for none.
	Default string
	// Description explains to the user what the variable is for.
	Description string
}

// Validate checks the descriptor for malformed values.
func (p VariableParams) Validate() error {
	return nil
}
