package config

// CLI session-token persistence. The token lives in the platform
// backend under a key that is not part of specs, so it never shows up
// in config listings and cannot be set through SetKey.

const sessionTokenKey = "session.token"

// SessionToken returns the stored CLI session token, if any.
func SessionToken() (string, bool) {
	v, ok, err := newPlatformBackend().GetString(sessionTokenKey)
	if err != nil || !ok || v == "" {
		return "", false
	}
	return v, true
}

// SaveSessionToken persists the CLI session token.
func SaveSessionToken(token string) error {
	return newPlatformBackend().SetString(sessionTokenKey, token)
}

// ClearSessionToken removes the stored CLI session token.
func ClearSessionToken() error {
	return newPlatformBackend().Delete(sessionTokenKey)
}
