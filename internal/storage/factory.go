package storage

// NewStore creates a new SQLite-backed store instance
func NewStore(dataDir string) (Store, error) {
	return NewSQLiteStore(dataDir)
}
