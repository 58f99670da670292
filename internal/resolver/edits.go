package resolver

// Operation tags one recorded mutation. The numeric values are what the
// audit log stores.
type Operation int

const (
	OpInstall   Operation = 1
	OpUninstall Operation = 2
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpInstall:
		return "install"
	case OpUninstall:
		return "uninstall"
	default:
		return "unknown"
	}
}

// Axis is the pair of independent narrowing dimensions a package entry can
// carry on top of its scope. Empty strings mean the axis is not set.
type Axis struct {
	Step     string
	Software string
}

func (a Axis) stepPtr() *string {
	if a.Step == "" {
		return nil
	}
	return &a.Step
}

func (a Axis) softwarePtr() *string {
	if a.Software == "" {
		return nil
	}
	return &a.Software
}

// Edit is one pending, unpersisted mutation record. Edits accumulate in
// session call order and are cleared on every save, whether or not they were
// flushed to the audit log.
type Edit struct {
	Scope   Scope
	Package string
	Axis    Axis
	Op      Operation
}
