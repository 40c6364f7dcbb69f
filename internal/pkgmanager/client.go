package pkgmanager

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTool is the package manager queried when none is configured.
	DefaultTool = "composer"
	// DefaultTimeout bounds each package manager invocation.
	DefaultTimeout = 10 * time.Second
)

var versionPattern = regexp.MustCompile(`[0-9]+\.[0-9]+\.[0-9]+`)

// Config controls which executable is queried and how.
type Config struct {
	Tool    string
	Dir     string
	Timeout time.Duration
}

// Client queries an external package manager for version information.
// Every query degrades to a placeholder string instead of failing.
type Client struct {
	runner Runner
	cfg    Config
	logger *zap.Logger
}

// NewClient constructs a Client. A nil runner uses ExecRunner and a nil
// logger discards output.
func NewClient(runner Runner, cfg Config, logger *zap.Logger) *Client {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Tool = strings.TrimSpace(cfg.Tool)
	if cfg.Tool == "" {
		cfg.Tool = DefaultTool
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{runner: runner, cfg: cfg, logger: logger}
}

// Tool returns the configured executable name.
func (c *Client) Tool() string {
	return c.cfg.Tool
}

// NotAvailable is returned when the tool cannot be run or exits non-zero.
func NotAvailable(tool string) string {
	return fmt.Sprintf("%s is not available", tool)
}

// Unparsable is returned when the tool output holds no version.
func Unparsable(tool string) string {
	return fmt.Sprintf("Unable to get %s version.", tool)
}

// ExtractVersion returns the first MAJOR.MINOR.PATCH sequence in output.
func ExtractVersion(output string) (string, bool) {
	match := versionPattern.FindString(output)
	return match, match != ""
}

// Version reports the version of the package manager itself (`<tool> -V`).
func (c *Client) Version(ctx context.Context) string {
	output, ok := c.run(ctx, "-V")
	if !ok {
		return NotAvailable(c.cfg.Tool)
	}
	return c.extract(output)
}

// PackageVersion reports the installed version of pkg as listed by
// `<tool> show`. Only output lines containing pkg are considered.
func (c *Client) PackageVersion(ctx context.Context, pkg string) string {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return Unparsable(c.cfg.Tool)
	}

	output, ok := c.run(ctx, "show")
	if !ok {
		return NotAvailable(c.cfg.Tool)
	}

	matched := filterLines(output, pkg)
	if len(matched) == 0 {
		c.logger.Debug("package not listed", zap.String("tool", c.cfg.Tool), zap.String("package", pkg))
		return NotAvailable(c.cfg.Tool)
	}

	return c.extract(strings.Join(matched, "\n"))
}

func (c *Client) run(ctx context.Context, args ...string) (string, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	cmd := Command{Name: c.cfg.Tool, Args: args, Dir: c.cfg.Dir}
	res, err := c.runner.Run(ctx, cmd)

	log := c.logger.With(zap.String("tool", c.cfg.Tool), zap.Strings("args", args), zap.Int("exitCode", res.ExitCode))
	if err != nil {
		log.Debug("package manager unavailable", zap.Error(err))
		return "", false
	}
	if res.ExitCode != 0 {
		log.Debug("package manager exited non-zero")
		return "", false
	}
	log.Debug("package manager query succeeded")
	return res.Output, true
}

func (c *Client) extract(output string) string {
	if v, ok := ExtractVersion(output); ok {
		return v
	}
	return Unparsable(c.cfg.Tool)
}

func filterLines(output, needle string) []string {
	var out []string
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, needle) {
			out = append(out, line)
		}
	}
	return out
}
