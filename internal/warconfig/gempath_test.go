// SPDX-License-Identifier: MPL-2.0

package warconfig

import (
	"errors"
	"testing"
)

func TestValidateGemPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"/WEB-INF/gems", false},
		{"/WEB-INF/vendor/gems", false},
		{"/gems", false},
		{"", true},
		{"/", true},
		{" /gems", true},
		{"/../gems", true},
		{"/gems/..", true},
		{"/gems%n", true},
		{"/gems{x}", true},
		{"/a;b", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			err := ValidateGemPath(tt.path)
			if tt.wantErr != (err != nil) {
				t.Fatalf("ValidateGemPath(%q) = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var gpErr *InvalidGemPathError
			if !errors.As(err, &gpErr) || gpErr.Value != tt.path || !errors.Is(err, ErrInvalidGemPath) {
				t.Errorf("error = %#v", err)
			}
		})
	}
}

func TestNormalizeGemPath(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"WEB-INF/gems":  "/WEB-INF/gems",
		"/WEB-INF/gems": "/WEB-INF/gems",
		"":              "/",
	} {
		if got := NormalizeGemPath(in); got != want {
			t.Errorf("NormalizeGemPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFeature_Validate(t *testing.T) {
	t.Parallel()

	if err := FeatureGemJar.Validate(); err != nil {
		t.Errorf("FeatureGemJar.Validate() = %v", err)
	}
	err := Feature("zipjar").Validate()
	var fErr *InvalidFeatureError
	if !errors.As(err, &fErr) || fErr.Value != "zipjar" || !errors.Is(err, ErrInvalidFeature) {
		t.Errorf("Validate() = %#v", err)
	}
}
