package provision

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the batch provisioning input:
//
//	roles:
//	  - name: app_rw
//	    password_file: secrets/app_rw
//	  - name: report_ro
//	    password: s3cret
//	    create: true
type Manifest struct {
	Roles []Role `yaml:"roles"`
}

// ParseManifest decodes and validates a manifest. Unknown fields are rejected.
func ParseManifest(r io.Reader) (Manifest, error) {
	const op = "provision.ParseManifest"

	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return Manifest{}, invalidInput(op, "empty manifest")
		}
		return Manifest{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
	}

	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// LoadManifest reads the manifest at path.
// Relative password_file entries are resolved against the manifest's directory.
func LoadManifest(path string) (Manifest, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied manifest path.
	if err != nil {
		return Manifest{}, fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, err := ParseManifest(f)
	if err != nil {
		return Manifest{}, err
	}

	dir := filepath.Dir(path)
	for i := range m.Roles {
		pf := m.Roles[i].PasswordFile
		if pf != "" && !filepath.IsAbs(pf) {
			m.Roles[i].PasswordFile = filepath.Join(dir, pf)
		}
	}
	return m, nil
}

// Validate checks names, duplicates and that each role names a password source.
func (m Manifest) Validate() error {
	const op = "provision.Manifest.Validate"

	if len(m.Roles) == 0 {
		return invalidInput(op, "no roles")
	}

	seen := make(map[string]int, len(m.Roles))
	for i, r := range m.Roles {
		if !ValidRoleName(r.Name) {
			return invalidInput(op, "roles[%d]: invalid role name %q", i, r.Name)
		}
		if j, dup := seen[r.Name]; dup {
			return invalidInput(op, "roles[%d]: duplicate role %q (first at roles[%d])", i, r.Name, j)
		}
		seen[r.Name] = i

		if r.Source().Empty() {
			return invalidInput(op, "roles[%d]: role %q has neither password nor password_file", i, r.Name)
		}
		if r.Password != "" && strings.TrimSpace(r.PasswordFile) != "" {
			return invalidInput(op, "roles[%d]: role %q sets both password and password_file", i, r.Name)
		}
	}
	return nil
}
