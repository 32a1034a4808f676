package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Validate checks a profile for missing or contradictory settings
func Validate(p *Profile) error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("profile %q: field %s fails %q", p.Name, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	for _, d := range p.Delimiters {
		if d[0] == d[1] {
			return fmt.Errorf("profile %q: delimiter %q opens and closes with the same character", p.Name, d)
		}
	}
	for _, q := range p.StringDelimiters {
		for _, lc := range p.LineComments {
			if q == lc {
				return fmt.Errorf("profile %q: %q is both a string delimiter and a comment marker", p.Name, q)
			}
		}
	}
	return nil
}

// file is the on-disk layout of a profile file: either a single profile or a
// "profiles" list.
type file struct {
	Profiles []*Profile `yaml:"profiles"`
}

// Load reads custom profiles from YAML
func Load(r io.Reader) ([]*Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if len(f.Profiles) == 0 {
		var single Profile
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&single); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("parse profile: %w", err)
		}
		f.Profiles = []*Profile{&single}
	}

	for _, p := range f.Profiles {
		p.seal()
		if err := Validate(p); err != nil {
			return nil, err
		}
	}
	return f.Profiles, nil
}

// LoadFile reads custom profiles from a YAML file
func LoadFile(path string) ([]*Profile, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open profiles: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Marshal renders a profile as YAML
func Marshal(p *Profile) (string, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
