package httpshare

import (
	"path"
	"strings"
)

// splitPattern separates an SMB search pattern ("\dir\*.txt") into the
// directory to list and the glob to match entries within it against.
func splitPattern(pattern string) (dir, glob string) {
	clean := strings.ReplaceAll(pattern, `\`, "/")
	if i := strings.LastIndexByte(clean, '/'); i >= 0 {
		return clean[:i], clean[i+1:]
	}
	return "", clean
}

// matchGlob adapts path.Match to SMB's "*" and "?" wildcards, which behave
// the same as Go's for the simple single-component patterns FIND_FIRST2
// sends in practice.
func matchGlob(glob, name string) (bool, error) {
	if glob == "" || glob == "*" || glob == "*.*" {
		return true, nil
	}
	return path.Match(glob, name)
}
