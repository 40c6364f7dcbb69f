package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-version-info/internal/config"
	"github.com/launchbynttdata/launch-version-info/internal/logging"
	"github.com/launchbynttdata/launch-version-info/internal/pkgmanager"
	"github.com/launchbynttdata/launch-version-info/internal/render"
	"github.com/launchbynttdata/launch-version-info/internal/rootdir"
	"github.com/launchbynttdata/launch-version-info/internal/version"
	"github.com/launchbynttdata/launch-version-info/internal/versioninfo"
)

const (
	envRootDir    = "VINFO_ROOT_DIR"
	envLogLevel   = "VINFO_LOG_LEVEL"
	envTool       = "VINFO_TOOL"
	envDependency = "VINFO_DEPENDENCY"
	envProfile    = "VINFO_PROFILE"
	envTimeout    = "VINFO_TIMEOUT"
	envUTC        = "VINFO_UTC"
	envFormat     = "VINFO_FORMAT"
	envMaxWidth   = "VINFO_MAX_WIDTH"
	envFields     = "VINFO_FIELDS"
)

const (
	flagFormat   = "format"
	flagMaxWidth = "max-width"
	flagFields   = "fields"
)

// Execute runs the CLI root command with the provided context.
func Execute(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return newRootCommand().ExecuteContext(ctx)
}

type rootFlagSet struct {
	rootDir    *stringFlag
	logLevel   *stringFlag
	tool       *stringFlag
	dependency *stringFlag
	profile    *stringFlag
	timeout    *durationFlag
	utc        *boolFlag
}

type outputFlagSet struct {
	format   *stringFlag
	maxWidth *intFlag
}

type runtimeConfig struct {
	resolver config.Resolver
	logger   *zap.Logger
	provider *versioninfo.Provider
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vinfo",
		Short:         "Report application version metadata",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version.Version
	cmd.SetVersionTemplate("vinfo {{.Version}}\n")

	flags := bindRootFlags(cmd)
	cmd.AddCommand(
		newShowCommand(flags),
		newGetCommand(flags),
		newCheckCommand(flags),
		newDepsCommand(flags),
		newVersionCommand(),
	)

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "vinfo %s\ncommit: %s\nbuild date: %s\n", version.Version, version.Commit, version.BuildDate); err != nil {
				return fmt.Errorf("writing version info: %w", err)
			}
			return nil
		},
	}
}

func bindRootFlags(cmd *cobra.Command) *rootFlagSet {
	fs := cmd.PersistentFlags()
	return &rootFlagSet{
		rootDir:    bindStringFlag(fs, "root-dir", "root-dir", "C", envRootDir, "", "Application root directory (default: closest parent holding a VERSION file)"),
		logLevel:   bindStringFlag(fs, "log-level", "log-level", "", envLogLevel, logging.LevelTerse, "Log verbosity (terse, verbose or quiet)"),
		tool:       bindStringFlag(fs, "tool", "tool", "", envTool, pkgmanager.DefaultTool, "Package manager executable"),
		dependency: bindStringFlag(fs, "dependency", "dependency", "", envDependency, versioninfo.DefaultDependency, "Package whose installed version is reported"),
		profile:    bindStringFlag(fs, "profile", "profile", "", envProfile, string(versioninfo.ProfileFull), "Reported field set (full or minimal)"),
		timeout:    bindDurationFlag(fs, "timeout", "timeout", "", envTimeout, pkgmanager.DefaultTimeout, "Timeout for each package manager invocation"),
		utc:        bindBoolFlag(fs, "utc", "utc", "", envUTC, false, "Render dates in UTC instead of local time"),
	}
}

func bindOutputFlags(cmd *cobra.Command) *outputFlagSet {
	fs := cmd.Flags()
	return &outputFlagSet{
		format:   bindStringFlag(fs, flagFormat, flagFormat, "o", envFormat, string(render.FormatTable), "Output format (table, text, json or yaml)"),
		maxWidth: bindIntFlag(fs, flagMaxWidth, flagMaxWidth, "", envMaxWidth, 0, "Maximum table width (default: terminal width)"),
	}
}

func (f *outputFlagSet) resolve(cmd *cobra.Command, resolver config.Resolver) (render.Format, render.Options, error) {
	format, err := render.ParseFormat(f.format.Value(resolver))
	if err != nil {
		return "", render.Options{}, err
	}

	width, err := f.maxWidth.Value(resolver)
	if err != nil {
		return "", render.Options{}, err
	}
	if width < 0 {
		return "", render.Options{}, fmt.Errorf("%s must not be negative", flagMaxWidth)
	}
	if width == 0 {
		if out, ok := cmd.OutOrStdout().(*os.File); ok {
			width = render.TerminalWidth(out)
		}
	}

	return format, render.Options{MaxWidth: width}, nil
}

func buildRuntime(cmd *cobra.Command, flags *rootFlagSet) (runtimeConfig, func(), error) {
	nopResolver := config.NewResolver(zap.NewNop())
	logLevel := flags.logLevel.Value(nopResolver)

	logger, err := logging.NewWithWriter(logLevel, cmd.ErrOrStderr())
	if err != nil {
		return runtimeConfig{}, nil, fmt.Errorf("configuring logger: %w", err)
	}

	resolver := config.NewResolver(logger)
	_ = flags.logLevel.Value(resolver)

	cleanup := func() {
		_ = logger.Sync()
	}

	provider, err := buildProvider(flags, resolver, logger)
	if err != nil {
		cleanup()
		return runtimeConfig{}, nil, err
	}

	return runtimeConfig{
		resolver: resolver,
		logger:   logger,
		provider: provider,
	}, cleanup, nil
}

func buildProvider(flags *rootFlagSet, resolver config.Resolver, logger *zap.Logger) (*versioninfo.Provider, error) {
	finder := rootdir.WorkingDir(versioninfo.VersionFilename)
	if dir := strings.TrimSpace(flags.rootDir.Value(resolver)); dir != "" {
		finder = rootdir.Explicit(dir)
	}
	root, err := finder.Find()
	if err != nil {
		return nil, fmt.Errorf("resolving root directory: %w", err)
	}

	settings, err := config.LoadSettings(root)
	if err != nil {
		return nil, err
	}

	tool := flags.tool.ValueOr(resolver, config.Or(settings.Tool, pkgmanager.DefaultTool))
	dependency := flags.dependency.ValueOr(resolver, config.Or(settings.Dependency, versioninfo.DefaultDependency))

	profile, err := versioninfo.ParseProfile(flags.profile.ValueOr(resolver, config.Or(settings.Profile, string(versioninfo.ProfileFull))))
	if err != nil {
		return nil, err
	}

	timeout, err := flags.timeout.ValueOr(resolver, config.DurationOr(settings.Timeout, pkgmanager.DefaultTimeout))
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be greater than zero")
	}

	utc, err := flags.utc.Value(resolver)
	if err != nil {
		return nil, err
	}
	location := time.Local
	if utc {
		location = time.UTC
	}

	logger.Debug("configuration resolved",
		zap.String("root", root),
		zap.String("tool", tool),
		zap.String("dependency", dependency),
		zap.String("profile", string(profile)),
		zap.Duration("timeout", timeout),
		zap.Bool("utc", utc),
	)

	packages := pkgmanager.NewClient(nil, pkgmanager.Config{Tool: tool, Dir: root, Timeout: timeout}, logger)

	return versioninfo.New(
		versioninfo.WithRootDir(root),
		versioninfo.WithProfile(profile),
		versioninfo.WithDependency(dependency),
		versioninfo.WithLocation(location),
		versioninfo.WithPackageManager(packages),
		versioninfo.WithLogger(logger),
	)
}

func writeLine(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format+"\n", args...); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
