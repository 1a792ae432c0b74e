package recordstore

// Snapshotter persists and restores the whole record set. Save always
// receives a complete snapshot and replaces whatever was stored before.
type Snapshotter interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
	Close() error
}
