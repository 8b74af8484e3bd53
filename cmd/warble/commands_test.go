// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"

	"github.com/warbler/warble/internal/config"
	"github.com/warbler/warble/internal/issue"
	"github.com/warbler/warble/internal/warconfig"
	"github.com/warbler/warble/pkg/pathmap"
)

type staticConfig struct {
	cfg *config.Config
	err error
}

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	return s.cfg, s.err
}

// run executes the command tree against a project directory and returns
// stdout, stderr and the error.
func run(t *testing.T, cfg *config.Config, dir string, args ...string) (string, string, error) {
	t.Helper()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config: staticConfig{cfg: cfg},
		Home:   t.TempDir(),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	root := NewRootCommand(app)
	root.SetArgs(append([]string{"--dir", dir}, args...))
	err := root.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func project(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestConfigCommand_JSON(t *testing.T) {
	t.Parallel()

	dir := project(t, map[string]string{
		"config.ru":         "run App\n",
		"lib/app.rb":        "",
		"config/warble.cue": "gem_path: \"/WEB-INF/vendor/gems\"\nfeatures: [\"gemjar\"]\n",
	})

	stdout, stderr, err := run(t, nil, dir, "config", "--format", "json")
	if err != nil {
		t.Fatalf("config error = %v\nstderr: %s", err, stderr)
	}

	var s warconfig.Snapshot
	if err := json.Unmarshal([]byte(stdout), &s); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if s.WarName != filepath.Base(dir) {
		t.Errorf("war_name = %q, want %q", s.WarName, filepath.Base(dir))
	}
	if s.Booter != "rack" || s.Listener != "org.jruby.rack.RackServletContextListener" {
		t.Errorf("booter, listener = %q, %q; want rack adapter", s.Booter, s.Listener)
	}
	if s.GemPath != "/WEB-INF/vendor/gems" {
		t.Errorf("gem_path = %q", s.GemPath)
	}
	if diff := cmp.Diff([]string{"WEB-INF/vendor/gems/gems/%p"}, s.Pathmaps["gems"]); diff != "" {
		t.Errorf("gems pathmaps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"config", "lib"}, s.Dirs); diff != "" {
		t.Errorf("dirs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"gemjar"}, s.Features); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}
	if got := s.ContextParams["gem.path"]; got != "/WEB-INF/vendor/gems" {
		t.Errorf("context param gem.path = %q", got)
	}
}

func TestConfigCommand_UserConfigApplies(t *testing.T) {
	t.Parallel()

	dir := project(t, map[string]string{"config.ru": "run App\n"})
	cfg := config.DefaultConfig()
	cfg.FrameworkDetection = false
	cfg.ExcludeLogs = false

	stdout, _, err := run(t, cfg, dir, "config", "-f", "toml")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}

	var s warconfig.Snapshot
	if err := toml.Unmarshal([]byte(stdout), &s); err != nil {
		t.Fatalf("output is not TOML: %v\n%s", err, stdout)
	}
	if s.Booter != "" {
		t.Errorf("booter = %q, want none with detection disabled", s.Booter)
	}
	if s.ExcludeLogs || len(s.Excludes) != 0 {
		t.Errorf("exclude_logs = %v, excludes = %v; want logs kept", s.ExcludeLogs, s.Excludes)
	}
}

func TestConfigCommand_Text(t *testing.T) {
	t.Parallel()

	dir := project(t, map[string]string{"config.ru": "run App\n"})
	stdout, _, err := run(t, nil, dir, "config")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	// Keys may carry terminal styling, so only whole tokens are matched.
	for _, want := range []string{"booter:", " rack\n", "gem_path:", " /WEB-INF/gems\n", "rails.env", "org.jruby.rack.RackServletContextListener"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestConfigCommand_InvalidFormat(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, nil, t.TempDir(), "config", "--format", "yaml")
	if !errors.Is(err, ErrInvalidOutputFormat) {
		t.Errorf("error = %v, want ErrInvalidOutputFormat", err)
	}
	assertExitCode(t, err, ExitUsage)
}

func assertExitCode(t *testing.T, err error, want int) {
	t.Helper()
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	if exitErr.Code != want {
		t.Errorf("exit code = %d, want %d", exitErr.Code, want)
	}
}

func TestConfigCommand_InvalidGemPath(t *testing.T) {
	t.Parallel()

	dir := project(t, map[string]string{"config/warble.cue": "gem_path: \"../gems\"\n"})
	_, stderr, err := run(t, nil, dir, "config")
	if !errors.Is(err, warconfig.ErrInvalidGemPath) {
		t.Fatalf("error = %v, want ErrInvalidGemPath", err)
	}
	if !strings.Contains(stderr, "warble issue invalid-gem-path") {
		t.Errorf("stderr does not point at the issue page:\n%s", stderr)
	}
}

func TestConfigCommand_ConfigLoadError(t *testing.T) {
	t.Parallel()

	loadErr := issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(errors.New("boom")).
		BuildError()

	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{Config: staticConfig{err: loadErr}, Stdout: &stdout, Stderr: &stderr})
	root := NewRootCommand(app)
	root.SetArgs([]string{"--dir", t.TempDir(), "config"})
	if err := root.ExecuteContext(t.Context()); !errors.Is(err, loadErr) {
		t.Fatalf("error = %v, want the config load error", err)
	}
	if !strings.Contains(stderr.String(), "config-load-failed") {
		t.Errorf("stderr = %q, want issue pointer", stderr.String())
	}
}

func TestConfigCommand_MissingProject(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, nil, filepath.Join(t.TempDir(), "missing"), "config")
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Operation != "open project" {
		t.Errorf("error = %v, want open project failure", err)
	}
}

func TestConfigDumpCommand(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Bundler = false
	stdout, _, err := run(t, cfg, t.TempDir(), "config", "dump")
	if err != nil {
		t.Fatalf("config dump error = %v", err)
	}
	if stdout != config.GenerateCUE(cfg) {
		t.Errorf("config dump output:\n%s", stdout)
	}
}

func TestWebXMLCommand(t *testing.T) {
	t.Parallel()

	dir := project(t, map[string]string{
		"config/environment.rb": "",
		"config/warble.cue": `
webxml: {
	jndi: "jdbc/main"
	jruby: min: runtimes: 2
}
`,
	})

	stdout, stderr, err := run(t, nil, dir, "webxml", "--format", "json")
	if err != nil {
		t.Fatalf("webxml error = %v\nstderr: %s", err, stderr)
	}

	var got descriptorView
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if got.Listener != "org.jruby.rack.rails.RailsServletContextListener" {
		t.Errorf("listener = %q", got.Listener)
	}
	if diff := cmp.Diff([]string{"jdbc/main"}, got.JNDI); diff != "" {
		t.Errorf("jndi mismatch (-want +got):\n%s", diff)
	}
	if got.ContextParams["jruby.min.runtimes"] != "2" {
		t.Errorf("context params = %v, want jruby.min.runtimes = 2", got.ContextParams)
	}
	for _, hidden := range []string{"jndi", "booter"} {
		if _, ok := got.ContextParams[hidden]; ok {
			t.Errorf("context params contain ignored key %q", hidden)
		}
	}
}

func TestPathmapCommand(t *testing.T) {
	t.Parallel()

	dir := project(t, map[string]string{"config/warble.cue": "gem_path: \"/WEB-INF/vendor\"\n"})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"public html", []string{"public_html", "public/images/logo.png"}, "public/images/logo.png -> images/logo.png\n"},
		{"java libs", []string{"java_libs", "lib/java/x.jar"}, "lib/java/x.jar -> WEB-INF/lib/x.jar\n"},
		{"relocated gems", []string{"gems", "rack-1.0/lib/rack.rb"}, "rack-1.0/lib/rack.rb -> WEB-INF/vendor/gems/rack-1.0/lib/rack.rb\n"},
		{"several sources", []string{"webinf", "config/web.xml.erb", "config/jboss-web.xml"}, "config/web.xml.erb -> WEB-INF/web.xml\nconfig/jboss-web.xml -> WEB-INF/jboss-web.xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			stdout, _, err := run(t, nil, dir, append([]string{"pathmap"}, tt.args...)...)
			if err != nil {
				t.Fatalf("pathmap error = %v", err)
			}
			if diff := cmp.Diff(tt.want, stdout); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPathmapCommand_All(t *testing.T) {
	t.Parallel()

	dir := project(t, map[string]string{"config/warble.cue": `pathmaps: java_libs: ["WEB-INF/extra/%f"]` + "\n"})
	stdout, _, err := run(t, nil, dir, "pathmap", "--all", "java_libs", "x.jar")
	if err != nil {
		t.Fatalf("pathmap error = %v", err)
	}
	want := "x.jar -> WEB-INF/lib/x.jar\nx.jar -> WEB-INF/extra/x.jar\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestPathmapCommand_UnknownCategory(t *testing.T) {
	t.Parallel()

	_, stderr, err := run(t, nil, t.TempDir(), "pathmap", "assets", "x.css")
	if !errors.Is(err, pathmap.ErrInvalidCategory) {
		t.Fatalf("error = %v, want ErrInvalidCategory", err)
	}
	assertExitCode(t, err, ExitUsage)
	if !strings.Contains(stderr, "warble issue unknown-category") {
		t.Errorf("stderr does not point at the issue page:\n%s", stderr)
	}
}

func TestIssueCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, nil, t.TempDir(), "issue")
	if err != nil {
		t.Fatalf("issue error = %v", err)
	}
	for _, i := range issue.Values() {
		if !strings.Contains(stdout, i.Name()) {
			t.Errorf("issue list missing %q", i.Name())
		}
	}

	for _, arg := range []string{"invalid-gem-path", "3"} {
		stdout, _, err := run(t, nil, t.TempDir(), "issue", arg, "--style", "notty")
		if err != nil {
			t.Fatalf("issue %s error = %v", arg, err)
		}
		if !strings.Contains(stdout, "Invalid gem path") {
			t.Errorf("issue %s output:\n%s", arg, stdout)
		}
	}

	if _, _, err := run(t, nil, t.TempDir(), "issue", "no-such-issue"); err == nil {
		t.Error("issue no-such-issue returned nil error")
	}
}
