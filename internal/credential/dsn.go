package credential

// BackendDSN returns the connection string for the given driver. For
// postgres the access key from the system keyring is appended as the
// password; other drivers pass through unchanged. A missing or
// unreadable key also passes the DSN through, for backends that do not
// require one.
func BackendDSN(driver, dsn string) string {
	if driver != "postgres" {
		return dsn
	}

	key, err := Get(KeyBackendAccess)
	if err != nil || key == "" {
		return dsn
	}
	return withPassword(dsn, key)
}

// withPassword appends a password option to a key/value DSN.
func withPassword(dsn, key string) string {
	return dsn + " password=" + key
}
