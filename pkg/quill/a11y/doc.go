// Package a11y defines the value types shared across quill: accessible
// object identities, roles, state and interface sets, and the CacheItem
// mirror of one remote UI element.
//
// Everything in this package is a plain value. Cross-references between
// items are always by Identity, never by pointer, so the accessible tree
// can be torn down piecewise without dangling references.
package a11y
