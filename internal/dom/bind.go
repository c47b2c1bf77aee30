package dom

import (
	"github.com/conneroisu/sitekit/internal/config"
	"github.com/conneroisu/sitekit/internal/search"
)

// IDs names the elements a page exposes to the search widget.
type IDs struct {
	Input          string
	Status         string
	Container      string
	HighlightClass string
}

// DefaultIDs matches the ids used by the site templates.
func DefaultIDs() IDs {
	return IDs{
		Input:          "search_input",
		Status:         "search_results_info",
		Container:      "main_content",
		HighlightClass: DefaultHighlightClass,
	}
}

// IDsFromConfig converts the search section of the configuration.
func IDsFromConfig(cfg config.SearchConfig) IDs {
	return IDs{
		Input:          cfg.InputID,
		Status:         cfg.StatusID,
		Container:      cfg.ContainerID,
		HighlightClass: cfg.HighlightClass,
	}
}

// Page is a document with a search widget attached. Container, Status and
// Input are nil when the document lacks the element.
type Page struct {
	Doc       *Document
	Widget    *search.Widget
	Container *ContainerElement
	Status    *StatusElement
	Input     *InputElement
}

// Bind finds the widget's elements by id and attaches a widget. A document
// without the container or the input yields a disabled widget.
func Bind(doc *Document, ids IDs, opts ...search.WidgetOption) *Page {
	p := &Page{Doc: doc}

	var (
		container search.Container
		input     search.Input
		status    search.Status
	)
	if n := doc.ByID(ids.Container); n != nil {
		p.Container = NewContainer(n, ids.HighlightClass)
		container = p.Container
	}
	if n := doc.ByID(ids.Input); n != nil {
		p.Input = &InputElement{Node: n}
		input = p.Input
	}
	if n := doc.ByID(ids.Status); n != nil {
		p.Status = &StatusElement{Node: n}
		status = p.Status
	}

	p.Widget = search.Attach(container, input, status, opts...)
	return p
}

// ContentHTML renders the container, or "" when there is none.
func (p *Page) ContentHTML() string {
	if p.Container == nil {
		return ""
	}
	return p.Container.HTML()
}

// StatusText returns the status message, or "" when there is no status element.
func (p *Page) StatusText() string {
	if p.Status == nil {
		return ""
	}
	return p.Status.Text()
}

// StatusVisible reports whether the status element is displayed.
func (p *Page) StatusVisible() bool {
	return p.Status != nil && p.Status.Visible()
}
