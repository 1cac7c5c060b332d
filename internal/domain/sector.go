package domain

// Sector is a named classification used to fill Ticket.Department.
type Sector struct {
	ID   int64
	Name string
}
