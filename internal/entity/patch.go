package entity

import "time"

// Optional distinguishes a field that was not supplied from one supplied with
// its zero value.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) OrElse(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// RegistrationPatch is a partial update. Unset fields keep their stored value.
type RegistrationPatch struct {
	FirstName        Optional[string]
	MiddleName       Optional[string]
	LastName         Optional[string]
	DateOfBirth      Optional[time.Time]
	Nationality      Optional[string]
	MaritalStatus    Optional[string]
	PlaceOfBirth     Optional[string]
	Sex              Optional[string]
	Gender           Optional[string]
	Religion         Optional[string]
	Address          Optional[string]
	PhoneNumber      Optional[string]
	Email            Optional[string]
	Occupation       Optional[string]
	BloodType        Optional[string]
	ProfileImagePath Optional[string]
	FaceDescriptor   Optional[string]

	Contact ContactPatch
}

type ContactPatch struct {
	Name         Optional[string]
	Relationship Optional[string]
	PhoneNumber  Optional[string]
}

// Any reports whether at least one contact field was supplied.
func (p ContactPatch) Any() bool {
	return p.Name.IsSet() || p.Relationship.IsSet() || p.PhoneNumber.IsSet()
}

// Complete reports whether every contact field was supplied, which is what a
// new contact row needs.
func (p ContactPatch) Complete() bool {
	return p.Name.IsSet() && p.Relationship.IsSet() && p.PhoneNumber.IsSet()
}

func (p ContactPatch) Apply(c EmergencyContact) EmergencyContact {
	c.Name = p.Name.OrElse(c.Name)
	c.Relationship = p.Relationship.OrElse(c.Relationship)
	c.PhoneNumber = p.PhoneNumber.OrElse(c.PhoneNumber)
	return c
}
