package search

import (
	"fmt"
	"strings"
)

// DefaultPlaceholder replaces the content when nothing matches.
const DefaultPlaceholder = "No results found. Try a different search term."

// NoResultsStatus is the status text when nothing matches.
const NoResultsStatus = "No results found"

// Outcome classifies a search.
type Outcome int

const (
	// OutcomeReset means the query was empty and the content is pristine.
	OutcomeReset Outcome = iota
	// OutcomeMatch means at least one section matched.
	OutcomeMatch
	// OutcomeNoMatch means the placeholder is shown.
	OutcomeNoMatch
)

// String returns the string representation of the Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeReset:
		return "reset"
	case OutcomeMatch:
		return "match"
	case OutcomeNoMatch:
		return "no_match"
	default:
		return "unknown"
	}
}

// Result describes a completed search.
type Result struct {
	Query    string
	Outcome  Outcome
	Sections int
	Matches  int
	Status   string
}

// StatusText formats the match count message.
func StatusText(matches int) string {
	if matches == 0 {
		return NoResultsStatus
	}
	if matches == 1 {
		return "Found 1 section with matches"
	}
	return fmt.Sprintf("Found %d sections with matches", matches)
}

// Engine runs searches over one container.
type Engine struct {
	container   Container
	status      Status
	pristine    Snapshot
	placeholder string
}

// NewEngine captures the container's pristine snapshot. A nil status is
// replaced by one that discards updates.
func NewEngine(container Container, status Status, placeholder string) *Engine {
	if status == nil {
		status = discardStatus{}
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &Engine{
		container:   container,
		status:      status,
		pristine:    container.Snapshot(),
		placeholder: placeholder,
	}
}

// Search restores the pristine content and applies query to it.
func (e *Engine) Search(query string) Result {
	e.container.Restore(e.pristine)

	term := strings.TrimSpace(query)
	if term == "" {
		e.status.SetText("")
		e.status.SetVisible(false)
		return Result{Outcome: OutcomeReset}
	}

	m := NewMatcher(term)
	sections := Partition(e.container.Elements())

	matched := make([]bool, len(sections))
	count := 0
	for i, s := range sections {
		if m.Contains(s.Text()) {
			matched[i] = true
			count++
		}
	}

	res := Result{
		Query:    term,
		Sections: len(sections),
		Matches:  count,
		Status:   StatusText(count),
	}

	if count == 0 {
		e.container.ShowPlaceholder(e.placeholder)
		res.Outcome = OutcomeNoMatch
	} else {
		for _, s := range sections {
			for _, n := range s.Nodes {
				n.SetVisible(false)
			}
		}
		for i, s := range sections {
			if !matched[i] {
				continue
			}
			for _, n := range s.Nodes {
				n.SetVisible(true)
				highlightNode(m, n)
			}
		}
		res.Outcome = OutcomeMatch
	}

	e.status.SetText(res.Status)
	e.status.SetVisible(true)
	return res
}

type discardStatus struct{}

func (discardStatus) SetText(string)  {}
func (discardStatus) SetVisible(bool) {}
