package tree

import (
	"encoding/json"

	"github.com/Velocidex/ordereddict"
)

// Attributes is an insertion-ordered mapping from attribute name to Value.
// Setting an existing name replaces its value in place.
type Attributes struct {
	d *ordereddict.Dict
}

type attribute struct {
	value       Value
	description string
}

// NewAttributes returns an empty group.
func NewAttributes() *Attributes {
	return &Attributes{d: ordereddict.NewDict()}
}

// Add sets name to v and returns a for chaining.
func (a *Attributes) Add(name string, v Value) *Attributes {
	return a.Describe(name, v, "")
}

// Describe sets name to v with a human-readable description.
func (a *Attributes) Describe(name string, v Value, description string) *Attributes {
	if a.d == nil {
		a.d = ordereddict.NewDict()
	}
	a.d.Update(name, attribute{value: v, description: description})
	return a
}

// Get returns the value stored under name.
func (a *Attributes) Get(name string) (Value, bool) {
	attr, ok := a.lookup(name)
	return attr.value, ok
}

// Description returns the description stored under name, if any.
func (a *Attributes) Description(name string) string {
	attr, _ := a.lookup(name)
	return attr.description
}

// Keys returns the attribute names in insertion order.
func (a *Attributes) Keys() []string {
	if a == nil || a.d == nil {
		return nil
	}
	return a.d.Keys()
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil || a.d == nil {
		return 0
	}
	return a.d.Len()
}

// Equal compares names, order, values and descriptions.
func (a *Attributes) Equal(o *Attributes) bool {
	ak, ok := a.Keys(), o.Keys()
	if len(ak) != len(ok) {
		return false
	}
	for i, name := range ak {
		if ok[i] != name {
			return false
		}
		x, _ := a.lookup(name)
		y, _ := o.lookup(name)
		if x.description != y.description || !x.value.Equal(y.value) {
			return false
		}
	}
	return true
}

func (a *Attributes) lookup(name string) (attribute, bool) {
	if a == nil || a.d == nil {
		return attribute{}, false
	}
	raw, ok := a.d.Get(name)
	if !ok {
		return attribute{}, false
	}
	attr, ok := raw.(attribute)
	return attr, ok
}

type attributeJSON struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Value       Value  `json:"value"`
}

// MarshalJSON encodes the group as an ordered list.
func (a *Attributes) MarshalJSON() ([]byte, error) {
	out := make([]attributeJSON, 0, a.Len())
	for _, name := range a.Keys() {
		attr, _ := a.lookup(name)
		out = append(out, attributeJSON{Name: name, Description: attr.description, Value: attr.value})
	}
	return json.Marshal(out)
}

func (a *Attributes) UnmarshalJSON(b []byte) error {
	var in []attributeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	a.d = ordereddict.NewDict()
	for _, attr := range in {
		a.Describe(attr.Name, attr.Value, attr.Description)
	}
	return nil
}
