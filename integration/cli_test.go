//go:build integration
// +build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	semver "github.com/blang/semver/v4"
)

const (
	envTool       = "VINFO_TOOL"
	envDependency = "VINFO_DEPENDENCY"
	envLogLevel   = "VINFO_LOG_LEVEL"
	envUTC        = "VINFO_UTC"
	envProfile    = "VINFO_PROFILE"

	buildVersion = "v9.9.9-integration"
	buildCommit  = "deadbee"
	cliTimeout   = 2 * time.Minute
)

const stubComposer = `#!/bin/sh
case "$1" in
  -V) echo "Composer version 2.8.4 2024-12-11 11:57:47" ;;
  show) printf 'ixnode/php-container 0.1.30 Containers\nixnode/php-exception 0.1.19 Exceptions\n' ;;
  *) exit 1 ;;
esac
`

const sampleManifest = `{
  "name": "ixnode/php-version",
  "description": "Reports application version metadata",
  "require": {"php": "^8.0", "ixnode/php-exception": "^0.1.19"}
}`

type cliHarness struct {
	t      *testing.T
	ctx    context.Context
	binary string
	root   string
	tool   string
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	t.Cleanup(cancel)

	h := &cliHarness{t: t, ctx: ctx}
	h.binary = buildBinary(t, ctx)
	h.root = t.TempDir()
	h.tool = filepath.Join(t.TempDir(), "composer")
	writeFile(t, h.tool, stubComposer, 0o700)
	writeFile(t, filepath.Join(h.root, "VERSION"), "1.4.2\n", 0o600)
	writeFile(t, filepath.Join(h.root, "composer.json"), sampleManifest, 0o600)
	return h
}

func buildBinary(t *testing.T, ctx context.Context) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "vinfo")
	ldflags := fmt.Sprintf("-X main.version=%s -X main.commit=%s -X main.date=%s", buildVersion, buildCommit, time.Now().UTC().Format(time.RFC3339))
	cmd := exec.CommandContext(ctx, "go", "build", "-ldflags", ldflags, "-o", out, ".")
	cmd.Dir = projectRoot(t)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("building vinfo: %v\n%s", err, output)
	}
	return out
}

func writeFile(t *testing.T, path, contents string, perm os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), perm); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func (h *cliHarness) runCLI(args []string, overrides map[string]string) (string, string, error) {
	h.t.Helper()
	cmd := exec.CommandContext(h.ctx, h.binary, args...)
	cmd.Dir = h.root
	envMap := map[string]string{
		envTool:     h.tool,
		envLogLevel: "verbose",
		envUTC:      "true",
	}
	for k, v := range overrides {
		envMap[k] = v
	}
	cmd.Env = append(os.Environ(), flattenEnv(envMap)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	h.t.Logf("running CLI: vinfo %s overrides=%v", strings.Join(args, " "), overrides)
	err := cmd.Run()
	stdoutStr := strings.TrimSpace(stdout.String())
	stderrStr := strings.TrimSpace(stderr.String())
	h.t.Logf("CLI result for %v err=%v stdout=%q stderr=%q", args, err, stdoutStr, stderrStr)
	return stdoutStr, stderrStr, err
}

func TestIntegrationShowReportsEveryField(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, err := h.runCLI([]string{"show", "--format", "json"}, nil)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(stdout), &record); err != nil {
		t.Fatalf("decoding show output: %v", err)
	}

	expected := map[string]string{
		"name":               "ixnode/php-version",
		"description":        "Reports application version metadata",
		"version":            "1.4.2",
		"dependency-version": "0.1.19",
	}
	for key, want := range expected {
		if got := record[key]; got != want {
			t.Errorf("%s: expected %q, got %v", key, want, got)
		}
	}

	pmVersion, _ := record["package-manager-version"].(string)
	if _, err := semver.Parse(pmVersion); err != nil {
		t.Errorf("package-manager-version %q is not a semantic version: %v", pmVersion, err)
	}
	if len(record) != 9 {
		t.Errorf("expected 9 fields, got %d", len(record))
	}
	if !strings.Contains(stderr, "package manager query succeeded") {
		t.Errorf("expected verbose log output, got %q", stderr)
	}
}

func TestIntegrationNestedWorkingDirectory(t *testing.T) {
	h := newHarness(t)
	nested := filepath.Join(h.root, "src", "Command")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cmd := exec.CommandContext(h.ctx, h.binary, "get", "version")
	cmd.Dir = nested
	cmd.Env = append(os.Environ(), flattenEnv(map[string]string{envTool: h.tool})...)
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("get version failed: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "1.4.2" {
		t.Fatalf("expected version 1.4.2, got %q", got)
	}
}

func TestIntegrationMissingToolIsSoft(t *testing.T) {
	h := newHarness(t)
	missing := filepath.Join(t.TempDir(), "composer")

	stdout, _, err := h.runCLI([]string{"get", "package-manager-version"}, map[string]string{envTool: missing})
	if err != nil {
		t.Fatalf("expected soft failure, got error: %v", err)
	}
	if stdout != missing+" is not available" {
		t.Fatalf("unexpected placeholder %q", stdout)
	}
}

func TestIntegrationCheckFailsWithExitStatus(t *testing.T) {
	h := newHarness(t)
	writeFile(t, filepath.Join(h.root, "VERSION"), "not-a-version\n", 0o600)
	writeFile(t, filepath.Join(h.root, "composer.json"), `{"name": "ixnode/php-version"}`, 0o600)

	stdout, stderr, err := h.runCLI([]string{"check"}, nil)

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit status 1, got %v", err)
	}
	if !strings.Contains(stdout, "FAIL version") || !strings.Contains(stdout, "FAIL description") {
		t.Errorf("expected failing checks in output, got %q", stdout)
	}
	if !strings.Contains(stderr, "2 errors occurred") {
		t.Errorf("expected aggregated error, got %q", stderr)
	}
}

func TestIntegrationMinimalProfileSkipsPackageManager(t *testing.T) {
	h := newHarness(t)
	if err := os.Remove(filepath.Join(h.root, "composer.json")); err != nil {
		t.Fatalf("removing manifest: %v", err)
	}

	stdout, stderr, err := h.runCLI([]string{"show", "--format", "text"}, map[string]string{envProfile: "minimal"})
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if lines := strings.Split(stdout, "\n"); len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), stdout)
	}
	if strings.Contains(stderr, "package manager") {
		t.Errorf("minimal profile must not query the package manager: %q", stderr)
	}
}

func TestIntegrationVersionCommandUsesLdflags(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.runCLI([]string{"version"}, nil)
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "vinfo "+buildVersion) {
		t.Errorf("unexpected version output %q", stdout)
	}
	if !strings.Contains(stdout, "commit: "+buildCommit) {
		t.Errorf("expected commit in version output, got %q", stdout)
	}
}

func projectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, statErr := os.Stat(filepath.Join(dir, "go.mod")); statErr == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("unable to locate go.mod from %s", dir)
		}
		dir = parent
	}
}

func flattenEnv(values map[string]string) []string {
	result := make([]string, 0, len(values))
	for k, v := range values {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}
