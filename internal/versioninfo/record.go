package versioninfo

import (
	"context"
	"errors"
	"fmt"
)

// Record field keys, in reporting order.
const (
	KeyName                  = "name"
	KeyDescription           = "description"
	KeyVersion               = "version"
	KeyDate                  = "date"
	KeyLicense               = "license"
	KeyAuthors               = "authors"
	KeyRuntimeVersion        = "runtime-version"
	KeyPackageManagerVersion = "package-manager-version"
	KeyDependencyVersion     = "dependency-version"
)

var (
	ErrUnknownProfile = errors.New("versioninfo: unknown profile")
	ErrUnknownField   = errors.New("versioninfo: unknown field")
)

// Profile selects which fields All reports.
type Profile string

const (
	// ProfileFull reports every field.
	ProfileFull Profile = "full"
	// ProfileMinimal reports version, date, license and authors only. It never
	// touches the manifest or the package manager.
	ProfileMinimal Profile = "minimal"
)

// ParseProfile converts a string into a Profile. Empty means ProfileFull.
func ParseProfile(value string) (Profile, error) {
	p := Profile(value)
	if value == "" {
		p = ProfileFull
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// Validate reports whether p is a known profile.
func (p Profile) Validate() error {
	switch p {
	case ProfileFull, ProfileMinimal:
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownProfile, string(p))
	}
}

// Keys lists the record keys reported under the profile, in order.
func (p Profile) Keys() []string {
	if p == ProfileMinimal {
		return []string{KeyVersion, KeyDate, KeyLicense, KeyAuthors}
	}
	return []string{
		KeyName,
		KeyDescription,
		KeyVersion,
		KeyDate,
		KeyLicense,
		KeyAuthors,
		KeyRuntimeVersion,
		KeyPackageManagerVersion,
		KeyDependencyVersion,
	}
}

// Record is the aggregate result of All. Fields outside the profile are
// left empty.
type Record struct {
	Profile               Profile  `json:"-" yaml:"-"`
	Name                  string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description           string   `json:"description,omitempty" yaml:"description,omitempty"`
	Version               string   `json:"version" yaml:"version"`
	Date                  string   `json:"date" yaml:"date"`
	License               string   `json:"license" yaml:"license"`
	Authors               []string `json:"authors" yaml:"authors"`
	RuntimeVersion        string   `json:"runtime-version,omitempty" yaml:"runtime-version,omitempty"`
	PackageManagerVersion string   `json:"package-manager-version,omitempty" yaml:"package-manager-version,omitempty"`
	Dependency            string   `json:"-" yaml:"-"`
	DependencyVersion     string   `json:"dependency-version,omitempty" yaml:"dependency-version,omitempty"`
}

// Field is a single key/value pair of a Record. Value is a string or a
// []string.
type Field struct {
	Key   string
	Value any
}

// Fields returns the record's profile fields in reporting order.
func (r Record) Fields() []Field {
	profile := r.Profile
	if profile == "" {
		profile = ProfileFull
	}
	keys := profile.Keys()
	out := make([]Field, 0, len(keys))
	for _, key := range keys {
		out = append(out, Field{Key: key, Value: r.value(key)})
	}
	return out
}

func (r Record) value(key string) any {
	switch key {
	case KeyName:
		return r.Name
	case KeyDescription:
		return r.Description
	case KeyVersion:
		return r.Version
	case KeyDate:
		return r.Date
	case KeyLicense:
		return r.License
	case KeyAuthors:
		return append([]string(nil), r.Authors...)
	case KeyRuntimeVersion:
		return r.RuntimeVersion
	case KeyPackageManagerVersion:
		return r.PackageManagerVersion
	case KeyDependencyVersion:
		return r.DependencyVersion
	default:
		return nil
	}
}

// All composes every accessor of the profile into a Record. It returns the
// first hard failure in key order; package manager fields never fail.
func (p *Provider) All(ctx context.Context) (Record, error) {
	rec := Record{Profile: p.profile}

	var err error
	if p.profile == ProfileFull {
		if rec.Name, err = p.Name(); err != nil {
			return Record{}, fmt.Errorf("reading %s: %w", KeyName, err)
		}
		if rec.Description, err = p.Description(); err != nil {
			return Record{}, fmt.Errorf("reading %s: %w", KeyDescription, err)
		}
	}

	if rec.Version, err = p.Version(); err != nil {
		return Record{}, fmt.Errorf("reading %s: %w", KeyVersion, err)
	}
	if rec.Date, err = p.Date(); err != nil {
		return Record{}, fmt.Errorf("reading %s: %w", KeyDate, err)
	}
	rec.License = p.License()
	rec.Authors = p.Authors()

	if p.profile == ProfileFull {
		rec.RuntimeVersion = p.RuntimeVersion()
		rec.PackageManagerVersion = p.PackageManagerVersion(ctx)
		rec.Dependency = p.dependency
		rec.DependencyVersion = p.DependencyVersion(ctx, p.dependency)
	}

	return rec, nil
}

// Get returns a single field by key.
func (p *Provider) Get(ctx context.Context, key string) (any, error) {
	switch key {
	case KeyName:
		return p.Name()
	case KeyDescription:
		return p.Description()
	case KeyVersion:
		return p.Version()
	case KeyDate:
		return p.Date()
	case KeyLicense:
		return p.License(), nil
	case KeyAuthors:
		return p.Authors(), nil
	case KeyRuntimeVersion:
		return p.RuntimeVersion(), nil
	case KeyPackageManagerVersion:
		return p.PackageManagerVersion(ctx), nil
	case KeyDependencyVersion:
		return p.DependencyVersion(ctx, p.dependency), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownField, key)
	}
}
