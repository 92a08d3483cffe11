// Package download provides the provider that fetches project data files
// over HTTP and verifies them against a recorded checksum.
package download

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/stagehand-dev/stagehand/internal/domain/provision"
	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
	"github.com/stagehand-dev/stagehand/internal/domain/state"
	"github.com/stagehand-dev/stagehand/internal/ports"
)

// Provider satisfies download requirements by fetching files into the
// project directory.
type Provider struct {
	fetcher ports.Downloader
}

// NewProvider creates a download provider over the given fetcher.
func NewProvider(fetcher ports.Downloader) *Provider {
	return &Provider{fetcher: fetcher}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "download"
}

// Matches reports whether the requirement is a download.
func (p *Provider) Matches(req requirement.Requirement) bool {
	return req.Kind() == requirement.KindDownload
}

// Check reports satisfied when the target file exists and, if a checksum
// was declared, matches it.
func (p *Provider) Check(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader) requirement.Status {
	params, ok := req.Parameters().(requirement.DownloadParams)
	if !ok {
		return requirement.Unknown("not a download requirement")
	}

	dest := p.destination(ctx, req, cfg, params)
	info, err := os.Stat(dest)
	if err != nil || info.IsDir() {
		return requirement.Unsatisfied(fmt.Sprintf("file %s has not been downloaded", dest))
	}

	if params.Checksum != "" {
		sum, err := fileChecksum(dest)
		if err != nil {
			return requirement.Unsatisfied(fmt.Sprintf("file %s is unreadable", dest), err.Error())
		}
		if sum != params.Checksum {
			return requirement.Unsatisfied(
				fmt.Sprintf("file %s checksum %s does not match expected %s", dest, sum, params.Checksum))
		}
	}

	return requirement.Satisfied(fmt.Sprintf("file %s is present", dest))
}

// Provision fetches the file and verifies its checksum. A checksum
// mismatch removes the corrupt file so a retry starts clean.
func (p *Provider) Provision(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader) (requirement.Status, []state.Entry, error) {
	params, ok := req.Parameters().(requirement.DownloadParams)
	if !ok {
		return requirement.Unsatisfied("unsupported parameters"), nil,
			provision.Fatalf("download provider cannot handle %T", req.Parameters())
	}
	if ctx.Cancelled() {
		return requirement.Cancelled("cancelled before download started"), nil, nil
	}
	if !ctx.AllowNetwork() {
		return requirement.Unsatisfied(fmt.Sprintf("fetching %s needs network access", params.URL)),
			nil, provision.ErrNetworkDisabled
	}

	dest := p.destination(ctx, req, cfg, params)
	result, err := p.fetcher.Fetch(ctx.Context(), params.URL, dest)
	if err != nil {
		if ctx.Cancelled() {
			return requirement.Cancelled("download interrupted"), nil, nil
		}
		return requirement.Unsatisfied(fmt.Sprintf("download of %s failed", params.URL), err.Error()),
			nil, err
	}

	if params.Checksum != "" && result.Checksum != params.Checksum {
		os.Remove(dest)
		return requirement.Unsatisfied(
				fmt.Sprintf("downloaded file checksum %s does not match expected %s", result.Checksum, params.Checksum)),
			nil, fmt.Errorf("checksum mismatch for %s", params.URL)
	}

	entry, _ := state.NewEntry(state.MustNewKey(req.Identity().String(), ""), dest, state.OriginAuto)
	return requirement.Satisfied(fmt.Sprintf("downloaded %d bytes to %s", result.Bytes, dest)),
		[]state.Entry{entry}, nil
}

// destination resolves where the file lives: a previously recorded path
// wins, otherwise the declared filename under the project directory.
func (p *Provider) destination(ctx provision.RunContext, req requirement.Requirement, cfg state.Reader, params requirement.DownloadParams) string {
	if recorded, ok := cfg.Value(req.Identity().String(), ""); ok && recorded != "" {
		return recorded
	}
	name := params.Filename
	if name == "" {
		name = req.Identity().String()
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(ctx.ProjectDir(), name)
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Ensure Provider implements provision.Provider.
var _ provision.Provider = (*Provider)(nil)
