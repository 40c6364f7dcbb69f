package cli

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-version-info/internal/render"
	"github.com/launchbynttdata/launch-version-info/internal/versioninfo"
)

const manifestKeyPrefix = "manifest:"

func newShowCommand(rootFlags *rootFlagSet) *cobra.Command {
	var fieldsFlag *stringSliceFlag

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print every version metadata field",
		Args:  cobra.NoArgs,
	}

	outFlags := bindOutputFlags(cmd)
	fieldsFlag = bindStringSliceFlag(cmd.Flags(), flagFields, flagFields, "", envFields, nil, "Restrict output to these field keys")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		runtime, cleanup, err := buildRuntime(cmd, rootFlags)
		if err != nil {
			return err
		}
		defer cleanup()

		format, opts, err := outFlags.resolve(cmd, runtime.resolver)
		if err != nil {
			return err
		}

		rec, err := runtime.provider.All(cmd.Context())
		if err != nil {
			return err
		}

		fields, err := selectFields(rec.Fields(), fieldsFlag.Value(runtime.resolver))
		if err != nil {
			return err
		}

		runtime.logger.Debug("rendering record", zap.String("format", string(format)), zap.Int("fields", len(fields)))
		return render.Fields(cmd.OutOrStdout(), format, fields, opts)
	}

	return cmd
}

func selectFields(fields []versioninfo.Field, keys []string) ([]versioninfo.Field, error) {
	if len(keys) == 0 {
		return fields, nil
	}
	byKey := make(map[string]versioninfo.Field, len(fields))
	for _, f := range fields {
		byKey[f.Key] = f
	}
	selected := make([]versioninfo.Field, 0, len(keys))
	for _, key := range keys {
		f, ok := byKey[key]
		if !ok {
			return nil, fmt.Errorf("%w %q", versioninfo.ErrUnknownField, key)
		}
		selected = append(selected, f)
	}
	return selected, nil
}

func newGetCommand(rootFlags *rootFlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "get <field>",
		Short: "Print a single field, or manifest:<a.b.c> for a nested manifest key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, cleanup, err := buildRuntime(cmd, rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			key := strings.TrimSpace(args[0])
			if path, ok := strings.CutPrefix(key, manifestKeyPrefix); ok {
				if path == "" {
					return fmt.Errorf("manifest key is required after %q", manifestKeyPrefix)
				}
				value, err := runtime.provider.ManifestKey(strings.Split(path, ".")...)
				if err != nil {
					return err
				}
				return render.Value(cmd.OutOrStdout(), value)
			}

			value, err := runtime.provider.Get(cmd.Context(), key)
			if err != nil {
				return err
			}
			return render.Value(cmd.OutOrStdout(), value)
		},
	}
}

func newCheckCommand(rootFlags *rootFlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the VERSION file and manifest, reporting every problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(cmd, rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			return runChecks(cmd, runtime)
		},
	}
}

type check struct {
	name string
	run  func() (string, error)
}

func runChecks(cmd *cobra.Command, runtime runtimeConfig) error {
	p := runtime.provider
	checks := []check{
		{name: versioninfo.KeyVersion, run: func() (string, error) {
			v, err := p.SemVer()
			if err != nil {
				return "", err
			}
			return v.String(), nil
		}},
		{name: versioninfo.KeyDate, run: p.Date},
	}
	if p.Profile() == versioninfo.ProfileFull {
		checks = append(checks,
			check{name: versioninfo.KeyName, run: p.Name},
			check{name: versioninfo.KeyDescription, run: p.Description},
		)
	}

	var result *multierror.Error
	out := cmd.OutOrStdout()
	for _, c := range checks {
		value, err := c.run()
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", c.name, err))
			if werr := writeLine(out, "FAIL %s", c.name); werr != nil {
				return werr
			}
			continue
		}
		if werr := writeLine(out, "ok   %s: %s", c.name, value); werr != nil {
			return werr
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		runtime.logger.Error("version metadata check failed", zap.Int("failures", len(result.Errors)))
		return err
	}
	runtime.logger.Debug("version metadata check passed", zap.Int("checks", len(checks)))
	return nil
}

func newDepsCommand(rootFlags *rootFlagSet) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "List manifest requirements with their installed versions",
		Args:  cobra.NoArgs,
	}

	outFlags := bindOutputFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		runtime, cleanup, err := buildRuntime(cmd, rootFlags)
		if err != nil {
			return err
		}
		defer cleanup()

		format, opts, err := outFlags.resolve(cmd, runtime.resolver)
		if err != nil {
			return err
		}

		doc, err := runtime.provider.Manifest()
		if err != nil {
			return err
		}
		reqs, err := doc.Requires()
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(reqs))
		for _, req := range reqs {
			installed := ""
			if !isPlatformPackage(req.Package) {
				installed = runtime.provider.DependencyVersion(cmd.Context(), req.Package)
			}
			rows = append(rows, []string{req.Package, req.Constraint, installed})
		}

		runtime.logger.Debug("listing requirements", zap.Int("count", len(rows)))
		return render.Rows(cmd.OutOrStdout(), format, []string{"package", "constraint", "installed"}, rows, opts)
	}

	return cmd
}

// isPlatformPackage reports requirements such as php or ext-json that the
// package manager does not install.
func isPlatformPackage(name string) bool {
	return !strings.Contains(name, "/")
}
