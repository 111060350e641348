// Package deps locates the external binaries vtoa drives and reports whether
// they are available.
package deps
