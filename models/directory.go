package models

// Directory is a `directories` row. ids 1..DirMax-1 are reserved (see
// database.DirRoot etc.)
type Directory struct {
	ID          int64    `col:"id,nobind"`
	VirtualPath string   `col:"virtual_path"`
	Path        string   `col:"path"`
	ParentID    int64    `col:"parent_id"`
	DBTimestamp int64    `col:"db_timestamp"`
	Disabled    int64    `col:"disabled"`
	ScanKind    ScanKind `col:"scan_kind"`
}

// Group is a `groups` row: one per distinct (type, persistentid) pair
// ever seen across live files. Maintained by the catalog store's
// syncGroups step (called from SaveMediaFile), not a real SQL trigger.
type Group struct {
	ID           int64     `col:"id,nobind"`
	Type         GroupType `col:"type"`
	PersistentID int64     `col:"persistentid"`
	Name         string    `col:"name"`
}
