package transaction

// Kind discriminates the closed set of transaction variants.
type Kind int

const (
	KindInsert Kind = iota
	KindEdit
	KindRemove
	KindFileAdd
	KindFileRemove
	KindFileRename
)

var kindNames = map[Kind]string{
	KindInsert:     "insert",
	KindEdit:       "edit",
	KindRemove:     "remove",
	KindFileAdd:    "file_add",
	KindFileRemove: "file_remove",
	KindFileRename: "file_rename",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Order breaks ties between transactions that start at the same byte.
// Among equal start offsets, a higher Order executes first.
type Order int

const (
	OrderFileRemove Order = iota
	OrderFileRename
	OrderInsert
	OrderEdit
	OrderRemove
	OrderFileAdd
)

var defaultOrders = map[Kind]Order{
	KindInsert:     OrderInsert,
	KindEdit:       OrderEdit,
	KindRemove:     OrderRemove,
	KindFileAdd:    OrderFileAdd,
	KindFileRemove: OrderFileRemove,
	KindFileRename: OrderFileRename,
}

func (o Order) String() string {
	for k, order := range defaultOrders {
		if order == o {
			return k.String()
		}
	}
	return "unknown"
}
