// Package git reports whether the archive is committed and whether the
// plaintext JSON exports it was built from are kept out of git.
package git
