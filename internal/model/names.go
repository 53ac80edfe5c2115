package model

import "strings"

// IDFromFilename derives a scenario or suite identifier from a definition
// file name by stripping everything from the first dot onward. A leading dot
// does not mark an extension, so hidden files keep their name.
//
//	"accounts.properties"      -> "accounts"
//	"accounts.smoke.properties" -> "accounts"
//	".hidden"                  -> ".hidden"
//	"plain"                    -> "plain"
func IDFromFilename(name string) string {
	if len(name) < 2 {
		return name
	}
	if idx := strings.Index(name[1:], "."); idx >= 0 {
		return name[:idx+1]
	}
	return name
}
