package components

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Movement holds speeds derived from the legs a body still has.
type Movement struct {
	WalkSpeed   float64 `inspect:"label,fmt:%.2f"`
	SprintSpeed float64 `inspect:"label,fmt:%.2f"`
	Downed      bool    `inspect:"bool"` // No leg-type parts left
}
