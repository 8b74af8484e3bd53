// SPDX-License-Identifier: MPL-2.0

// Package pathmap rewrites source file paths into destination paths inside a
// web archive.
//
// A Template is a small pattern language (%p, %f, %n, %x, %X, %d, %Nd, %s and
// %{pat,rep}-prefixed substitutions). A Set groups template lists under a fixed
// set of categories (public assets, Java libraries, classes, application code,
// WEB-INF files, package specifications and package payloads) and supports
// relocating the package-install path in place.
package pathmap
