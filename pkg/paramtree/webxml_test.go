// SPDX-License-Identifier: MPL-2.0

package paramtree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTree_ServletContextListener(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		booter any
		want   string
	}{
		{"rack", BooterRack, "org.jruby.rack.RackServletContextListener"},
		{"merb", BooterMerb, "org.jruby.rack.merb.MerbServletContextListener"},
		{"rails", BooterRails, "org.jruby.rack.rails.RailsServletContextListener"},
		{"plain string rack", "rack", "org.jruby.rack.RackServletContextListener"},
		{"unknown falls back to rails", "sinatra", "org.jruby.rack.rails.RailsServletContextListener"},
		{"unset falls back to rails", nil, "org.jruby.rack.rails.RailsServletContextListener"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tree := New("webxml")
			if tt.booter != nil {
				mustSet(t, tree, BooterKey, tt.booter)
			}
			if got := tree.ServletContextListener(); got != tt.want {
				t.Errorf("ServletContextListener() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTree_JNDI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"unset", nil, nil},
		{"single", "jdbc/main", []string{"jdbc/main"}},
		{"comma separated", "jdbc/main, jdbc/audit", []string{"jdbc/main", "jdbc/audit"}},
		{"list", []string{"jdbc/a", "jdbc/b"}, []string{"jdbc/a", "jdbc/b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tree := New("webxml")
			mustSet(t, tree, JNDIKey, tt.value)
			if diff := cmp.Diff(tt.want, tree.JNDI()); diff != "" {
				t.Errorf("JNDI() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEscapeHTML(t *testing.T) {
	t.Parallel()

	if got, want := EscapeHTML(`<a href="x">Tom & Jerry's</a>`), "&lt;a href=&quot;x&quot;&gt;Tom &amp; Jerry&#39;s&lt;/a&gt;"; got != want {
		t.Errorf("EscapeHTML() = %q, want %q", got, want)
	}
}
