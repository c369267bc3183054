// Package builtin provides the transformers shipped with lbship and the static
// table that registers them by name.
package builtin
