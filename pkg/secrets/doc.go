// Package secrets resolves ${secret:name} references in credentials.
//
// A reference is looked up in each configured provider in order. The file
// provider reads one owner-only file per secret from a directory, the way
// Docker and Kubernetes mount secrets. The environment provider reads a
// prefixed, upper-cased variable:
//
//	api_key: ${secret:plex-token}
//
//	/run/secrets/plex-token          (FileProvider, dir /run/secrets)
//	CURATOR_SECRET_PLEX_TOKEN        (EnvProvider, prefix CURATOR_SECRET_)
//
// Values that contain no reference are returned unchanged.
package secrets
