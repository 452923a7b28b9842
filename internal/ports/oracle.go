package ports

type FocusOracle interface {
	Visible() bool
	Focused() bool
}
