// Package compose builds the contextual preamble injected into a
// conversation: the employee's legal profile, the standing instruction
// list, and a replay of recent persisted history.
package compose

// EmployeeProfile carries the employee facts the assistant needs for
// labor-law answers. All fields are verbatim strings from the request;
// empty fields render as empty rather than being omitted, keeping the
// preamble's field order fixed.
type EmployeeProfile struct {
	ID              string
	FullName        string
	CIN             string // national identity document number
	CINDate         string
	CINPlace        string
	ContractType    string
	EmploymentType  string
	NetSalary       string
	BrutSalary      string
	SeniorityMonths string
	DateOfStart     string
	Profession      string
	CNSSNumber      string // national insurance number
	MaritalStatus   string
	Nationality     string
}
