// Package preflight provides readiness checks for the external tools and
// filesystem paths vtoa depends on.
//
// These checks run in two contexts:
//   - "vtoa convert" verifies the media directory before discovery so a
//     read-only mount fails once instead of once per file.
//   - "vtoa check" renders every result, including optional tools.
package preflight
