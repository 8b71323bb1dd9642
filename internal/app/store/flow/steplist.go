// internal/app/store/flow/steplist.go
package flow

import (
	"github.com/google/uuid"
)

// DefaultIcon is the icon token assigned to steps created by the editor.
const DefaultIcon = "check-circle"

// Icons lists the icon tokens the step editor offers.
func Icons() []string {
	return []string{
		"check-circle",
		"file-text",
		"credit-card",
		"user-check",
		"map-pin",
		"mail",
		"clock",
	}
}

// StepList is the ordered step collection edited inside a flow draft.
// Mutations address steps by index but every step carries a stable,
// locally generated id so removals from the middle never confuse the
// editor about which row is which.
type StepList []Step

// Append adds an empty step at the end and returns it.
func (l *StepList) Append() Step {
	s := Step{
		ID:   "step_" + uuid.NewString(),
		Icon: DefaultIcon,
	}
	*l = append(*l, s)
	return s
}

// RemoveAt deletes the step at index i, shifting later steps down. Out of
// range indices are ignored.
func (l *StepList) RemoveAt(i int) {
	if i < 0 || i >= len(*l) {
		return
	}
	*l = append((*l)[:i], (*l)[i+1:]...)
}

// SetField mutates one field of the step at index i in place. Unknown
// fields and out of range indices are ignored.
func (l StepList) SetField(i int, field, value string) {
	if i < 0 || i >= len(l) {
		return
	}
	switch field {
	case "label":
		l[i].Label = value
	case "description":
		l[i].Description = value
	case "service":
		l[i].Service = value
	case "icon":
		l[i].Icon = value
	}
}
