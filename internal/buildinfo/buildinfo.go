// Package buildinfo holds release metadata set with -ldflags -X.
package buildinfo

var (
	Version = ""
	Commit  = ""
	Date    = ""
)
