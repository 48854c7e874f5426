// Curator keeps a media library tidy. Rule groups select library items by
// properties gathered from Plex, Radarr, Sonarr and Overseerr; matching items
// are collected, and once their retention window passes they are removed
// from every application that holds them.
//
// Usage:
//
//	# Run the scheduler with the default configuration
//	curator run
//
//	# Evaluate one rule group now without changing anything
//	curator evaluate --group "Old unwatched movies" --dry-run
//
//	# List items whose retention window has passed
//	curator prune --dry-run
//
//	# Check a rule group file
//	curator validate rules.yaml
//
//	# List the properties rules can reference
//	curator properties
package main

func main() {
	Execute()
}
