// SPDX-License-Identifier: MPL-2.0

package warconfig

import (
	"context"
	"errors"
	"slices"
	"testing"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"

	"github.com/warbler/warble/internal/detect"
	"github.com/warbler/warble/internal/issue"
	"github.com/warbler/warble/internal/manifest"
	"github.com/warbler/warble/pkg/depset"
	"github.com/warbler/warble/pkg/fspath"
	"github.com/warbler/warble/pkg/paramtree"
	"github.com/warbler/warble/pkg/pathmap"
)

const projectRoot = "/srv/app"

type fakeResolver struct {
	deps     []depset.Dependency
	err      error
	envCalls []manifest.EnvironmentOptions
	resolves int
}

func (r *fakeResolver) WriteEnvironment(_ context.Context, opts manifest.EnvironmentOptions) error {
	r.envCalls = append(r.envCalls, opts)
	return nil
}

func (r *fakeResolver) ResolvedDependencies(context.Context) ([]depset.Dependency, error) {
	r.resolves++
	return r.deps, r.err
}

func projectFS(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		if content == "/" {
			if err := fs.MkdirAll(name, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := util.WriteFile(fs, name, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func newConfig(t *testing.T, opts Options) *Config {
	t.Helper()
	if opts.ProjectRoot == "" {
		opts.ProjectRoot = projectRoot
	}
	if opts.Getenv == nil {
		opts.Getenv = func(string) string { return "" }
	}
	c, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_EmptyProject(t *testing.T) {
	t.Parallel()

	c := newConfig(t, Options{FS: projectFS(t, nil)})

	if c.Framework.Detected {
		t.Errorf("Framework = %+v, want nothing detected", c.Framework)
	}
	if got := c.WebXML.Booter(); got != "" {
		t.Errorf("booter = %q, want unset", got)
	}
	if c.Gems.Len() != 0 {
		t.Errorf("Gems = %v, want empty", c.Gems.List())
	}
	for _, cat := range pathmap.Categories() {
		if n := len(c.Pathmaps.Templates(cat)); n != 1 {
			t.Errorf("category %s has %d templates, want 1", cat, n)
		}
	}
	if diff := cmp.Diff([]string{LogExcludePattern}, c.Excludes); diff != "" {
		t.Errorf("Excludes mismatch (-want +got):\n%s", diff)
	}
	if c.Bundler {
		t.Error("Bundler = true without a Gemfile")
	}
	if !c.GemDependencies || !c.ExcludeLogs {
		t.Error("GemDependencies and ExcludeLogs default to true")
	}
	if len(c.Dirs) != 0 {
		t.Errorf("Dirs = %v, want none", c.Dirs)
	}
	if c.WarName != "app" {
		t.Errorf("WarName = %q, want %q", c.WarName, "app")
	}
	if c.GemPath != DefaultGemPath {
		t.Errorf("GemPath = %q", c.GemPath)
	}
	if diff := cmp.Diff([]string{"web.xml.erb"}, c.WebinfFiles); diff != "" {
		t.Errorf("WebinfFiles mismatch (-want +got):\n%s", diff)
	}

	want := map[string]string{
		"rails.env":   "production",
		"public.root": "/",
	}
	if diff := cmp.Diff(want, c.WebXML.ContextParams()); diff != "" {
		t.Errorf("ContextParams() mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_Seeds(t *testing.T) {
	t.Parallel()

	fs := projectFS(t, map[string]string{
		"app":                "/",
		"config/web.xml.erb": "<web-app/>",
		"vendor":             "/",
		"log":                "/",
		"script":             "/",
	})
	c := newConfig(t, Options{
		FS:                        fs,
		Getenv:                    func(k string) string { return map[string]string{RailsEnvVar: "staging"}[k] },
		RuntimeJars:               []string{"jruby-core.jar", "jruby-rack.jar"},
		WarblerHome:               "/opt/warble",
		DisableFrameworkDetection: true,
	})

	if diff := cmp.Diff([]string{"app", "config", "log", "vendor"}, c.Dirs); diff != "" {
		t.Errorf("Dirs mismatch (-want +got):\n%s", diff)
	}
	if got := c.WebXML.String("rails.env"); got != "staging" {
		t.Errorf("rails.env = %q, want staging", got)
	}
	if diff := cmp.Diff([]string{"jruby-core.jar", "jruby-rack.jar"}, c.JavaLibs); diff != "" {
		t.Errorf("JavaLibs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"config/web.xml.erb"}, c.WebinfFiles); diff != "" {
		t.Errorf("WebinfFiles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{PublicHTMLPattern}, c.PublicHTML); diff != "" {
		t.Errorf("PublicHTML mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{paramtree.JNDIKey, paramtree.BooterKey}, c.WebXML.Ignored()); diff != "" {
		t.Errorf("Ignored mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_DetectsRack(t *testing.T) {
	t.Parallel()

	c := newConfig(t, Options{FS: projectFS(t, map[string]string{"config.ru": "run App\n"})})
	if !c.Framework.Detected || c.Framework.Booter != paramtree.BooterRack {
		t.Fatalf("Framework = %+v, want rack", c.Framework)
	}
	if got := c.WebXML.ServletContextListener(); got != "org.jruby.rack.RackServletContextListener" {
		t.Errorf("listener = %q", got)
	}
	if _, ok := c.WebXML.ContextParams()[paramtree.BooterKey]; ok {
		t.Error("booter must not be serialized")
	}
}

func TestNew_DetectsRailsWithoutLockfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
	}{
		{
			name: "vendored rails",
			files: map[string]string{
				"config/environment.rb": "Rails::Initializer.run\n",
				"config.ru":             "run App\n",
				"vendor/rails":          "/",
				"tmp":                   "/",
			},
		},
		{
			name: "system rails",
			files: map[string]string{
				"config/environment.rb": "Rails::Initializer.run\n",
				"config.ru":             "run App\n",
				"tmp":                   "/",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newConfig(t, Options{FS: projectFS(t, tt.files)})
			if !c.Framework.Detected || c.Framework.Booter != paramtree.BooterRails {
				t.Fatalf("Framework = %+v, want rails", c.Framework)
			}
			if got := c.WebXML.ServletContextListener(); got != "org.jruby.rack.rails.RailsServletContextListener" {
				t.Errorf("listener = %q", got)
			}
			if !slices.Contains(c.Dirs, "tmp") {
				t.Errorf("Dirs = %v, want tmp", c.Dirs)
			}
			if _, ok := c.WebXML.ContextParams()["rackup"]; ok {
				t.Error("rack probe ran after rails was detected")
			}
			if c.Gems.Len() != 0 {
				t.Errorf("Gems = %v, want none without a version to pin", c.Gems.List())
			}
		})
	}
}

func TestNew_DetectionDisabled(t *testing.T) {
	t.Parallel()

	c := newConfig(t, Options{
		FS:                        projectFS(t, map[string]string{"config.ru": "run App\n"}),
		DisableFrameworkDetection: true,
	})
	if c.Framework.Detected || c.WebXML.Booter() != "" {
		t.Errorf("detection ran although disabled: %+v", c.Framework)
	}
}

func TestNew_CustomProbesRunBeforeOverride(t *testing.T) {
	t.Parallel()

	var order []string
	probe := probeFunc(func(_ context.Context, tgt *detect.Target) detect.Result {
		order = append(order, "probe")
		_ = tgt.WebXML.Set(paramtree.BooterKey, paramtree.BooterMerb)
		tgt.Gems.Add("merb-core", "1.0")
		return detect.Result{Status: detect.Applied, Booter: paramtree.BooterMerb}
	})

	c := newConfig(t, Options{
		FS:     projectFS(t, nil),
		Probes: []detect.Probe{probe},
		Override: func(c *Config) error {
			order = append(order, "override")
			c.Gems.Replace([]depset.Dependency{{Name: "merb-haml"}})
			return nil
		},
	})

	if diff := cmp.Diff([]string{"probe", "override"}, order); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]depset.Dependency{{Name: "merb-haml"}}, c.Gems.List()); diff != "" {
		t.Errorf("override did not replace gems (-want +got):\n%s", diff)
	}
}

func TestNew_RelocatesGemPath(t *testing.T) {
	t.Parallel()

	c := newConfig(t, Options{
		FS:       projectFS(t, nil),
		Override: func(c *Config) error { c.GemPath = "WEB-INF/vendor/gems"; return nil },
	})

	if c.GemPath != "/WEB-INF/vendor/gems" {
		t.Errorf("GemPath = %q, want normalized with leading slash", c.GemPath)
	}
	if got := c.RelativeGemPath(); got != "WEB-INF/vendor/gems" {
		t.Errorf("RelativeGemPath() = %q", got)
	}
	if got := c.WebXML.String("gem.path"); got != "/WEB-INF/vendor/gems" {
		t.Errorf("gem.path = %q", got)
	}

	got, err := c.Resolve(pathmap.CategoryGemspecs, "rack-1.0.1.gemspec")
	if err != nil || got != "WEB-INF/vendor/gems/specifications/rack-1.0.1.gemspec" {
		t.Errorf("Resolve(gemspecs) = (%q, %v)", got, err)
	}
	got, err = c.Resolve(pathmap.CategoryGems, "rack-1.0.1/lib/rack.rb")
	if err != nil || got != "WEB-INF/vendor/gems/gems/rack-1.0.1/lib/rack.rb" {
		t.Errorf("Resolve(gems) = (%q, %v)", got, err)
	}
	got, err = c.Resolve(pathmap.CategoryJavaLibs, "lib/java/foo.jar")
	if err != nil || got != "WEB-INF/lib/foo.jar" {
		t.Errorf("Resolve(java_libs) = (%q, %v)", got, err)
	}
}

func TestNew_DefaultGemPathUntouched(t *testing.T) {
	t.Parallel()

	c := newConfig(t, Options{FS: projectFS(t, nil)})
	if got := c.WebXML.String("gem.path"); got != "" {
		t.Errorf("gem.path = %q, want unset for the default gem path", got)
	}
	if got := c.Pathmaps.Templates(pathmap.CategoryGems)[0].String(); got != "WEB-INF/gems/gems/%p" {
		t.Errorf("gems template = %q", got)
	}
}

func TestNew_InjectedDefaultGemPath(t *testing.T) {
	t.Parallel()

	c := newConfig(t, Options{FS: projectFS(t, nil), DefaultGemPath: "/WEB-INF/lib/gems"})
	if c.DefaultGemPath() != "/WEB-INF/lib/gems" || c.GemPath != "/WEB-INF/lib/gems" {
		t.Errorf("gem path = %q (default %q)", c.GemPath, c.DefaultGemPath())
	}
	if got := c.Pathmaps.Templates(pathmap.CategoryGemspecs)[0].String(); got != "WEB-INF/lib/gems/specifications/%f" {
		t.Errorf("gemspecs template = %q", got)
	}
}

func TestNew_InvalidGemPath(t *testing.T) {
	t.Parallel()

	for _, gp := range []string{"/", "  ", "../gems", "/WEB-INF/../../gems", "/gems%p", "/a,b"} {
		t.Run(gp, func(t *testing.T) {
			t.Parallel()

			_, err := New(context.Background(), Options{
				ProjectRoot: projectRoot,
				FS:          projectFS(t, nil),
				Override:    func(c *Config) error { c.GemPath = gp; return nil },
			})
			if !errors.Is(err, ErrInvalidGemPath) {
				t.Fatalf("New() error = %v, want ErrInvalidGemPath", err)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.IssueID != issue.InvalidGemPathId || ae.Operation != "relocate gem path" {
				t.Errorf("error = %#v, want actionable gem path error", err)
			}
		})
	}
}

func TestNew_GemPathConflictsWithWebXML(t *testing.T) {
	t.Parallel()

	var seen *Config
	_, err := New(context.Background(), Options{
		ProjectRoot: projectRoot,
		FS:          projectFS(t, nil),
		Override: func(c *Config) error {
			seen = c
			c.GemPath = "/vendor/gems"
			return c.WebXML.Set("gem", "flat")
		},
	})
	if !errors.Is(err, paramtree.ErrStructuralConflict) {
		t.Fatalf("New() error = %v, want ErrStructuralConflict", err)
	}
	if got := seen.Pathmaps.Templates(pathmap.CategoryGems)[0].String(); got != "WEB-INF/gems/gems/%p" {
		t.Errorf("templates relocated despite failure: %q", got)
	}
}

func TestNew_Bundler(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{deps: []depset.Dependency{
		{Name: "rack", Constraint: "= 1.0.1"},
		{Name: "rails", Constraint: "= 2.3.5"},
	}}
	c := newConfig(t, Options{
		FS:       projectFS(t, map[string]string{manifest.GemfileName: "source :gemcutter\n"}),
		Manifest: resolver,
		Override: func(c *Config) error {
			c.Gems.Add("stale", "")
			c.GemPath = "/WEB-INF/vendor/gems"
			return nil
		},
	})

	if !c.Bundler || c.GemDependencies {
		t.Errorf("Bundler = %v, GemDependencies = %v, want true/false", c.Bundler, c.GemDependencies)
	}
	if diff := cmp.Diff(resolver.deps, c.Gems.List()); diff != "" {
		t.Errorf("Gems mismatch (-want +got):\n%s", diff)
	}
	want := []manifest.EnvironmentOptions{{GemPath: "/WEB-INF/vendor/gems", SuppressAutoReload: true}}
	if diff := cmp.Diff(want, resolver.envCalls); diff != "" {
		t.Errorf("WriteEnvironment calls mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_BundlerSkipped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		files    map[string]string
		override func(*Config) error
	}{
		{"no gemfile", nil, nil},
		{"disabled", map[string]string{manifest.GemfileName: ""}, func(c *Config) error { c.Bundler = false; return nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resolver := &fakeResolver{}
			c := newConfig(t, Options{
				FS:       projectFS(t, tt.files),
				Manifest: resolver,
				Override: func(c *Config) error {
					c.Gems.Add("haml", ">= 2.2")
					if tt.override != nil {
						return tt.override(c)
					}
					return nil
				},
			})
			if c.Bundler || !c.GemDependencies {
				t.Errorf("Bundler = %v, GemDependencies = %v", c.Bundler, c.GemDependencies)
			}
			if resolver.resolves != 0 || len(resolver.envCalls) != 0 {
				t.Error("resolver consulted while Bundler is off")
			}
			if !c.Gems.Has("haml") {
				t.Error("configured gems must be kept")
			}
		})
	}
}

func TestNew_BundlerFailureIsFatal(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := New(context.Background(), Options{
		ProjectRoot: projectRoot,
		FS:          projectFS(t, map[string]string{manifest.GemfileName: ""}),
		Manifest:    &fakeResolver{err: boom},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("New() error = %v, want boom", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Operation != "resolve bundled gems" || ae.IssueID != issue.ManifestResolveFailedId {
		t.Errorf("error = %#v", err)
	}
}

func TestNew_BundlerFromLockfile(t *testing.T) {
	t.Parallel()

	fs := projectFS(t, map[string]string{
		manifest.GemfileName:  "source 'https://rubygems.org'\ngem 'rack'\n",
		manifest.LockfileName: "GEM\n  remote: https://rubygems.org/\n  specs:\n    rack (1.0.1)\n    rake (0.8.7)\n\nDEPENDENCIES\n  rack\n  rake\n",
	})
	c := newConfig(t, Options{FS: fs, DisableFrameworkDetection: true})

	if diff := cmp.Diff([]depset.Dependency{{Name: "rack", Constraint: "= 1.0.1"}}, c.Gems.List()); diff != "" {
		t.Errorf("Gems mismatch (-want +got):\n%s", diff)
	}
	if !fspath.IsFile(fs, manifest.WarEnvironmentFile) {
		t.Errorf("%s was not written", manifest.WarEnvironmentFile)
	}
}

func TestNew_MissingLockfile(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Options{
		ProjectRoot:               projectRoot,
		FS:                        projectFS(t, map[string]string{manifest.GemfileName: ""}),
		DisableFrameworkDetection: true,
	})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.IssueID != issue.LockfileMissingId {
		t.Errorf("New() error = %v, want lockfile-missing issue", err)
	}
}

func TestNew_OverrideError(t *testing.T) {
	t.Parallel()

	bad := errors.New("bad override")
	_, err := New(context.Background(), Options{
		ProjectRoot: projectRoot,
		FS:          projectFS(t, nil),
		Override:    func(*Config) error { return bad },
	})
	if !errors.Is(err, bad) {
		t.Errorf("New() error = %v, want wrapped override error", err)
	}
}

func TestNew_Features(t *testing.T) {
	t.Parallel()

	c := newConfig(t, Options{
		FS:       projectFS(t, nil),
		Override: func(c *Config) error { c.Features = append(c.Features, FeatureGemJar); return nil },
	})
	if diff := cmp.Diff([]Feature{FeatureGemJar}, c.Features); diff != "" {
		t.Errorf("Features mismatch (-want +got):\n%s", diff)
	}

	_, err := New(context.Background(), Options{
		ProjectRoot: projectRoot,
		FS:          projectFS(t, nil),
		Override:    func(c *Config) error { c.Features = []Feature{"zipjar"}; return nil },
	})
	if !errors.Is(err, ErrInvalidFeature) {
		t.Errorf("New() error = %v, want ErrInvalidFeature", err)
	}
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	c := newConfig(t, Options{FS: projectFS(t, map[string]string{"config.ru": "run App"})})
	s := c.Snapshot()

	if s.Booter != "rack" || s.Listener != "org.jruby.rack.RackServletContextListener" {
		t.Errorf("Snapshot booter = %q, listener = %q", s.Booter, s.Listener)
	}
	if got := s.Pathmaps["public_html"]; len(got) != 1 || got[0] != "%{public/,}p" {
		t.Errorf("public_html pathmaps = %v", got)
	}
	if s.Gems == nil || s.Includes == nil {
		t.Error("empty lists must serialize as empty, not null")
	}
	if s.ContextParams["rackup"] != "run App" {
		t.Errorf("context params = %v", s.ContextParams)
	}
}

type probeFunc func(context.Context, *detect.Target) detect.Result

func (probeFunc) Name() string { return "func" }

func (f probeFunc) Detect(ctx context.Context, t *detect.Target) detect.Result { return f(ctx, t) }
