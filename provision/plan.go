package provision

// Action records what the converge step did (or would do) to one resource.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUnchanged Action = "unchanged"
)

// Change is one line of an apply report.
type Change struct {
	Resource string
	Name     string
	Action   Action
}

// Plan is the full apply report, in converge order.
type Plan struct {
	Changes []Change
}

func (p *Plan) add(resource, name string, created bool) {
	act := ActionUnchanged
	if created {
		act = ActionCreated
	}
	p.Changes = append(p.Changes, Change{Resource: resource, Name: name, Action: act})
}

// Created returns how many resources the apply had to create. Zero means the
// actual state already matched the declaration.
func (p *Plan) Created() int {
	n := 0
	for _, c := range p.Changes {
		if c.Action == ActionCreated {
			n++
		}
	}
	return n
}
