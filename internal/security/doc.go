// Package security keeps file access inside the working directory.
package security
