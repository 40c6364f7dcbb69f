// Package versioninfo reports version metadata for an application rooted at
// a directory holding a VERSION marker file and a composer.json manifest.
package versioninfo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	semver "github.com/blang/semver/v4"
	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-version-info/internal/manifest"
	"github.com/launchbynttdata/launch-version-info/internal/pkgmanager"
	"github.com/launchbynttdata/launch-version-info/internal/rootdir"
)

const (
	// License is reported for every application.
	License = "Copyright (c) 2022 Björn Hempel"

	// VersionFilename is the marker file holding the version string.
	VersionFilename = rootdir.DefaultMarker

	// DefaultDependency is the dependency whose installed version is reported.
	DefaultDependency = "ixnode/php-exception"

	// DateLayout renders the marker file modification time,
	// e.g. "Saturday, June 24, 2023 - 14:05:09".
	DateLayout = "Monday, January 02, 2006 - 15:04:05"
)

var authors = []string{
	"Björn Hempel <bjoern@hempel.li>",
}

var (
	ErrVersionFileNotFound = errors.New("versioninfo: version file not found")
	ErrVersionEmpty        = errors.New("versioninfo: version file is empty")
	ErrInvalidSemVer       = errors.New("versioninfo: version is not semantic")
)

// Provider resolves version metadata. The root directory is fixed at
// construction; every accessor reads from disk or runs the package manager
// anew.
type Provider struct {
	rootDir        string
	profile        Profile
	dependency     string
	location       *time.Location
	runtimeVersion func() string
	packages       *pkgmanager.Client
	logger         *zap.Logger
}

type options struct {
	finder         rootdir.Finder
	profile        Profile
	dependency     string
	location       *time.Location
	runtimeVersion func() string
	packages       *pkgmanager.Client
	logger         *zap.Logger
}

// Option configures a Provider.
type Option func(*options)

// WithRootDir uses dir as the application root without searching for it.
func WithRootDir(dir string) Option {
	return func(o *options) { o.finder = rootdir.Explicit(dir) }
}

// WithRootFinder resolves the application root with f.
func WithRootFinder(f rootdir.Finder) Option {
	return func(o *options) { o.finder = f }
}

// WithProfile selects which fields All reports.
func WithProfile(p Profile) Option {
	return func(o *options) { o.profile = p }
}

// WithDependency names the dependency whose installed version All reports.
func WithDependency(name string) Option {
	return func(o *options) { o.dependency = strings.TrimSpace(name) }
}

// WithLocation sets the time zone used to render the version date.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// WithRuntimeVersion overrides how the runtime version is obtained.
func WithRuntimeVersion(fn func() string) Option {
	return func(o *options) { o.runtimeVersion = fn }
}

// WithPackageManager sets the client used for package manager queries.
func WithPackageManager(c *pkgmanager.Client) Option {
	return func(o *options) { o.packages = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds a Provider. Without WithRootDir or WithRootFinder the root is
// the closest directory at or above the working directory holding a VERSION
// file.
func New(opts ...Option) (*Provider, error) {
	o := options{
		finder:         rootdir.WorkingDir(VersionFilename),
		profile:        ProfileFull,
		dependency:     DefaultDependency,
		location:       time.Local,
		runtimeVersion: runtime.Version,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.finder == nil {
		return nil, fmt.Errorf("versioninfo: %w", rootdir.ErrEmptyPath)
	}
	if err := o.profile.Validate(); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.location == nil {
		o.location = time.Local
	}
	if o.runtimeVersion == nil {
		o.runtimeVersion = runtime.Version
	}

	root, err := o.finder.Find()
	if err != nil {
		return nil, fmt.Errorf("resolving root directory: %w", err)
	}

	if o.packages == nil {
		o.packages = pkgmanager.NewClient(nil, pkgmanager.Config{Dir: root}, o.logger)
	}

	o.logger.Debug("version info provider ready", zap.String("root", root), zap.String("profile", string(o.profile)))

	return &Provider{
		rootDir:        root,
		profile:        o.profile,
		dependency:     o.dependency,
		location:       o.location,
		runtimeVersion: o.runtimeVersion,
		packages:       o.packages,
		logger:         o.logger,
	}, nil
}

// RootDir returns the resolved application root.
func (p *Provider) RootDir() string {
	return p.rootDir
}

// Profile returns the configured field profile.
func (p *Provider) Profile() Profile {
	return p.profile
}

// Dependency returns the dependency reported by All.
func (p *Provider) Dependency() string {
	return p.dependency
}

// VersionFile returns the path of the VERSION marker file.
func (p *Provider) VersionFile() string {
	return filepath.Join(p.rootDir, VersionFilename)
}

// ManifestFile returns the path of the manifest file.
func (p *Provider) ManifestFile() string {
	return filepath.Join(p.rootDir, manifest.DefaultFilename)
}

// Version returns the trimmed content of the VERSION file.
func (p *Provider) Version() (string, error) {
	path := p.VersionFile()
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrVersionFileNotFound, path, err)
	}
	version := strings.TrimSpace(string(contents))
	if version == "" {
		return "", fmt.Errorf("%w: %s", ErrVersionEmpty, path)
	}
	return version, nil
}

// SemVer parses Version as a semantic version. A leading "v" and missing
// minor or patch components are tolerated.
func (p *Provider) SemVer() (semver.Version, error) {
	raw, err := p.Version()
	if err != nil {
		return semver.Version{}, err
	}
	v, err := semver.ParseTolerant(raw)
	if err != nil {
		return semver.Version{}, fmt.Errorf("%w: %q: %w", ErrInvalidSemVer, raw, err)
	}
	return v, nil
}

// ModTime returns the modification time of the VERSION file.
func (p *Provider) ModTime() (time.Time, error) {
	path := p.VersionFile()
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %w", ErrVersionFileNotFound, path, err)
	}
	return fi.ModTime(), nil
}

// Date returns the VERSION file modification time rendered with DateLayout.
func (p *Provider) Date() (string, error) {
	mtime, err := p.ModTime()
	if err != nil {
		return "", err
	}
	return FormatDate(mtime, p.location), nil
}

// FormatDate renders t in loc with DateLayout. Month and weekday names are
// always English.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// Name returns the manifest "name".
func (p *Provider) Name() (string, error) {
	return p.ManifestKey("name")
}

// Description returns the manifest "description".
func (p *Provider) Description() (string, error) {
	return p.ManifestKey("description")
}

// ManifestKey returns the string at the nested manifest key path.
func (p *Provider) ManifestKey(keys ...string) (string, error) {
	doc, err := p.Manifest()
	if err != nil {
		return "", err
	}
	return doc.String(keys...)
}

// Manifest loads the manifest file.
func (p *Provider) Manifest() (*manifest.Document, error) {
	return manifest.Load(p.ManifestFile())
}

// License returns the application license.
func (p *Provider) License() string {
	return License
}

// Authors returns the application authors.
func (p *Provider) Authors() []string {
	return append([]string(nil), authors...)
}

// RuntimeVersion returns the version of the running language runtime.
func (p *Provider) RuntimeVersion() string {
	return p.runtimeVersion()
}

// PackageManager returns the client used for package manager queries.
func (p *Provider) PackageManager() *pkgmanager.Client {
	return p.packages
}

// PackageManagerVersion returns the package manager version or a placeholder
// when it cannot be determined.
func (p *Provider) PackageManagerVersion(ctx context.Context) string {
	return p.packages.Version(ctx)
}

// DependencyVersion returns the installed version of pkg or a placeholder
// when it cannot be determined.
func (p *Provider) DependencyVersion(ctx context.Context, pkg string) string {
	return p.packages.PackageVersion(ctx, pkg)
}
