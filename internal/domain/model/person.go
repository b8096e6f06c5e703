package model

import (
	"encoding/json"
	"fmt"
)

// Role is the kind-specific part of a Person. The set of implementations is
// closed: ClientRole and EmployeeRole.
type Role interface {
	Kind() PersonKind
	// Detail returns the value the record system reports as roleOrCompany.
	Detail() string
	isRole()
}

// ClientRole carries the fields only clients have.
type ClientRole struct {
	CompanyName string
}

// Kind implements Role.
func (ClientRole) Kind() PersonKind { return PersonKindClient }

// Detail implements Role.
func (r ClientRole) Detail() string { return r.CompanyName }

func (ClientRole) isRole() {}

// EmployeeRole carries the fields only employees have.
type EmployeeRole struct {
	Department string
}

// Kind implements Role.
func (EmployeeRole) Kind() PersonKind { return PersonKindEmployee }

// Detail implements Role.
func (r EmployeeRole) Detail() string { return r.Department }

func (EmployeeRole) isRole() {}

// Person is a record-system person: either a client or an employee.
type Person struct {
	ID        int64
	Code      string
	FirstName string
	LastName  string
	Email     string
	Role      Role
}

// personWire is the record system's JSON shape for people and people-report
// rows. roleOrCompany means company for clients and department for employees.
type personWire struct {
	ID            int64      `json:"id"`
	Type          PersonKind `json:"type"`
	Code          *string    `json:"code"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Email         string     `json:"email"`
	RoleOrCompany *string    `json:"roleOrCompany"`
	CompanyName   *string    `json:"companyName,omitempty"`
	Department    *string    `json:"department,omitempty"`
}

// UnmarshalJSON decodes a person record and selects its Role from "type".
// roleOrCompany takes precedence over companyName/department when present.
func (p *Person) UnmarshalJSON(data []byte) error {
	var w personWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	detail := deref(w.RoleOrCompany)

	var role Role
	switch w.Type {
	case PersonKindClient:
		if w.RoleOrCompany == nil {
			detail = deref(w.CompanyName)
		}
		role = ClientRole{CompanyName: detail}
	case PersonKindEmployee:
		if w.RoleOrCompany == nil {
			detail = deref(w.Department)
		}
		role = EmployeeRole{Department: detail}
	default:
		return fmt.Errorf("person %d: unknown type %q", w.ID, w.Type)
	}

	*p = Person{
		ID:        w.ID,
		Code:      deref(w.Code),
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Email:     w.Email,
		Role:      role,
	}
	return nil
}

// MarshalJSON encodes the person in the people-report row shape, keeping the
// roleOrCompany field exactly as the record system emits it.
func (p Person) MarshalJSON() ([]byte, error) {
	if p.Role == nil {
		return nil, fmt.Errorf("person %d: missing role", p.ID)
	}

	w := personWire{
		ID:        p.ID,
		Type:      p.Role.Kind(),
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
	}
	if p.Code != "" {
		w.Code = &p.Code
	}
	if detail := p.Role.Detail(); detail != "" {
		w.RoleOrCompany = &detail
	}
	return json.Marshal(w)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
