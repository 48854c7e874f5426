// Package gitsource keeps a local clone of a repository holding the rule
// group file. The rule job pulls it before each run and reseeds the rule
// groups when the file changed.
//
// Authentication is one of:
//
//   - none: public repositories
//   - token: HTTPS with a personal access token
//   - ssh: a private key file, optionally passphrase protected
//
// Pulls never force. A diverged local clone fails the pull and the last
// checked out revision stays in use.
package gitsource
