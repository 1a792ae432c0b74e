// Package utils holds small name helpers shared by the store, codec and loaders.
package utils

import "strings"

// CanonicalDNSName returns the form used as a record store key: trimmed,
// lowercased, and without trailing dots. DNS names compare case-insensitively,
// so "Example.COM." and "example.com" address the same records.
func CanonicalDNSName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimRight(name, ".")
}

// ExpandName qualifies a zone-relative label against root. "@" is the root
// itself and a label ending in "." is already absolute.
func ExpandName(label, root string) string {
	root = CanonicalDNSName(root)
	switch {
	case label == "@":
		return root
	case strings.HasSuffix(label, "."):
		return CanonicalDNSName(label)
	case root == "":
		return CanonicalDNSName(label)
	default:
		return CanonicalDNSName(label + "." + root)
	}
}
