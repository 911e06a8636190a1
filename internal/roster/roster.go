package roster

import (
	"fmt"
	"strings"
)

// ID identifies a role within a roster.
type ID string

// Tag classifies a role's responsibility.
type Tag int8

const (
	TagPlanner Tag = iota
	TagProducer
	TagReviewer
	TagExecutor
)

func (t Tag) String() string {
	switch t {
	case TagPlanner:
		return "planner"
	case TagProducer:
		return "producer"
	case TagReviewer:
		return "reviewer"
	case TagExecutor:
		return "executor"
	default:
		return "invalid"
	}
}

func ParseTag(s string) (Tag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "planner":
		return TagPlanner, nil
	case "producer":
		return TagProducer, nil
	case "reviewer":
		return TagReviewer, nil
	case "executor":
		return TagExecutor, nil
	default:
		return 0, fmt.Errorf("unknown role tag: %q", s)
	}
}

// Style distinguishes the two designated producers for artifact handoff.
type Style int8

const (
	StyleNone Style = iota
	StyleBackend
	StyleFrontend
)

func (s Style) String() string {
	switch s {
	case StyleBackend:
		return "backend"
	case StyleFrontend:
		return "frontend"
	default:
		return ""
	}
}

func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return StyleNone, nil
	case "backend":
		return StyleBackend, nil
	case "frontend":
		return StyleFrontend, nil
	default:
		return 0, fmt.Errorf("unknown producer style: %q", s)
	}
}

// Role is one participant. Immutable for the lifetime of a cycle; agents
// built from it are recreated fresh on every restart.
type Role struct {
	ID           ID
	Tag          Tag
	Style        Style
	Instructions string
}

const (
	DefaultSentinel   = "TERMINATE"
	DefaultPassMarker = "PASS"
)

// Roster is the validated, immutable set of roles for a run.
type Roster struct {
	Roles []Role

	byID       map[ID]Role
	planner    ID
	reviewer   ID
	executor   ID
	backend    ID
	frontend   ID
	sentinel   string
	passMarker string
}

// New validates the role set and builds the lookup indexes. Empty sentinel
// and passMarker fall back to the defaults.
func New(roles []Role, sentinel, passMarker string) (*Roster, error) {
	r := &Roster{
		Roles:      roles,
		byID:       make(map[ID]Role, len(roles)),
		sentinel:   strings.TrimSpace(sentinel),
		passMarker: strings.TrimSpace(passMarker),
	}
	if r.sentinel == "" {
		r.sentinel = DefaultSentinel
	}
	if r.passMarker == "" {
		r.passMarker = DefaultPassMarker
	}

	var planners, reviewers, executors, producers int
	for _, role := range roles {
		if strings.TrimSpace(string(role.ID)) == "" {
			return nil, fmt.Errorf("role with empty id")
		}
		if _, dup := r.byID[role.ID]; dup {
			return nil, fmt.Errorf("duplicate role id: %q", role.ID)
		}
		r.byID[role.ID] = role

		if role.Style != StyleNone && role.Tag != TagProducer {
			return nil, fmt.Errorf("role %q: style %q is only valid on producers", role.ID, role.Style)
		}

		switch role.Tag {
		case TagPlanner:
			planners++
			r.planner = role.ID
		case TagReviewer:
			reviewers++
			r.reviewer = role.ID
		case TagExecutor:
			executors++
			r.executor = role.ID
		case TagProducer:
			producers++
			switch role.Style {
			case StyleBackend:
				if r.backend != "" {
					return nil, fmt.Errorf("more than one backend-style producer")
				}
				r.backend = role.ID
			case StyleFrontend:
				if r.frontend != "" {
					return nil, fmt.Errorf("more than one frontend-style producer")
				}
				r.frontend = role.ID
			}
		}
	}

	if planners != 1 {
		return nil, fmt.Errorf("roster needs exactly one planner, found %d", planners)
	}
	if reviewers != 1 {
		return nil, fmt.Errorf("roster needs exactly one reviewer, found %d", reviewers)
	}
	if executors != 1 {
		return nil, fmt.Errorf("roster needs exactly one executor, found %d", executors)
	}
	if producers < 1 {
		return nil, fmt.Errorf("roster needs at least one producer")
	}
	return r, nil
}

func (r *Roster) Lookup(id ID) (Role, bool) {
	role, ok := r.byID[id]
	return role, ok
}

func (r *Roster) Planner() ID  { return r.planner }
func (r *Roster) Reviewer() ID { return r.reviewer }
func (r *Roster) Executor() ID { return r.executor }

func (r *Roster) BackendProducer() (ID, bool)  { return r.backend, r.backend != "" }
func (r *Roster) FrontendProducer() (ID, bool) { return r.frontend, r.frontend != "" }

// Sentinel is the exact substring whose presence terminates a cycle.
func (r *Roster) Sentinel() string { return r.sentinel }

// PassMarker is the literal the reviewer emits on a passing review.
func (r *Roster) PassMarker() string { return r.passMarker }
