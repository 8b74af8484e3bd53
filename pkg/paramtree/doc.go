// SPDX-License-Identifier: MPL-2.0

// Package paramtree implements the nested, lazily-extending parameter tree
// that collects deployment-descriptor (web.xml) context parameters.
//
// Paths are dotted strings ("jruby.max.runtimes"). Reading a path that was
// never set creates empty intermediate nodes instead of failing. ContextParams
// flattens the tree into escaped key/value pairs, leaving out bookkeeping keys
// listed in the ignored set.
package paramtree
