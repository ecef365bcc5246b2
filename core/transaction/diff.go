package transaction

// ChangeType is the net effect a transaction has on its file.
type ChangeType int

const (
	ChangeAdded ChangeType = iota
	ChangeModified
	ChangeRemoved
	ChangeRenamed
)

var changeTypeNames = map[ChangeType]string{
	ChangeAdded:    "added",
	ChangeModified: "modified",
	ChangeRemoved:  "removed",
	ChangeRenamed:  "renamed",
}

func (c ChangeType) String() string {
	if name, ok := changeTypeNames[c]; ok {
		return name
	}
	return "unknown"
}

// DiffLite is a content-free change notification produced on commit.
type DiffLite struct {
	Path       string
	ChangeType ChangeType
	// RenameFrom is the previous path of a renamed file.
	RenameFrom string
}

func (d DiffLite) String() string {
	if d.ChangeType == ChangeRenamed {
		return d.ChangeType.String() + " " + d.RenameFrom + " -> " + d.Path
	}
	return d.ChangeType.String() + " " + d.Path
}
