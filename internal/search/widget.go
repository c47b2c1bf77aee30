package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/sitekit/internal/logging"
)

// EscapeKey clears the query.
const EscapeKey = "Escape"

// State is the widget's position in its event cycle.
type State int

const (
	StateIdle State = iota
	StateDebouncePending
	StateFilteredMatch
	StateFilteredNoMatch
)

// String returns the string representation of the State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncePending:
		return "debounce_pending"
	case StateFilteredMatch:
		return "filtered_match"
	case StateFilteredNoMatch:
		return "filtered_no_match"
	default:
		return "unknown"
	}
}

func stateFor(o Outcome) State {
	switch o {
	case OutcomeMatch:
		return StateFilteredMatch
	case OutcomeNoMatch:
		return StateFilteredNoMatch
	default:
		return StateIdle
	}
}

// UpdateFunc observes every executed search. It runs while the widget is
// locked and must not call back into the widget.
type UpdateFunc func(res Result, state State)

type widgetConfig struct {
	debounce    time.Duration
	clock       Clock
	placeholder string
	onUpdate    UpdateFunc
	logger      logging.Logger
}

// WidgetOption configures a Widget.
type WidgetOption func(*widgetConfig)

// WithDebounce sets the quiet period before a typed query runs.
func WithDebounce(d time.Duration) WidgetOption {
	return func(c *widgetConfig) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(clock Clock) WidgetOption {
	return func(c *widgetConfig) {
		c.clock = clock
	}
}

// WithPlaceholder sets the no-results message.
func WithPlaceholder(msg string) WidgetOption {
	return func(c *widgetConfig) {
		c.placeholder = msg
	}
}

// WithUpdateHandler registers fn to observe searches.
func WithUpdateHandler(fn UpdateFunc) WidgetOption {
	return func(c *widgetConfig) {
		c.onUpdate = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) WidgetOption {
	return func(c *widgetConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Widget connects an input control to an Engine. Typed input is debounced;
// the escape key and blurring an empty input reset immediately.
//
// A widget attached without a container or input is disabled: every method
// is a no-op and State stays StateIdle.
type Widget struct {
	mutex     sync.Mutex
	engine    *Engine
	input     Input
	debouncer *Debouncer
	state     State
	seq       uint64
	onUpdate  UpdateFunc
	logger    logging.Logger
}

// Attach captures the container's pristine content and returns a widget
// bound to it.
func Attach(container Container, input Input, status Status, opts ...WidgetOption) *Widget {
	cfg := widgetConfig{
		debounce: DefaultDebounce,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Widget{
		onUpdate: cfg.onUpdate,
		logger:   cfg.logger.WithComponent("search"),
	}
	if container == nil || input == nil {
		w.logger.Debug(context.Background(), "Search widget disabled: missing container or input")
		return w
	}

	w.engine = NewEngine(container, status, cfg.placeholder)
	w.input = input
	w.debouncer = NewDebouncer(cfg.debounce, cfg.clock)
	return w
}

// Enabled reports whether the widget is bound to a container and input.
func (w *Widget) Enabled() bool {
	return w.engine != nil
}

// State returns the current state.
func (w *Widget) State() State {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.state
}

// OnInput records a new input value and schedules a search for it once
// input has been quiet for the debounce period.
func (w *Widget) OnInput(value string) {
	if !w.Enabled() {
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.input.SetValue(value)
	w.seq++
	seq := w.seq
	w.state = StateDebouncePending

	w.debouncer.Arm(func() {
		w.mutex.Lock()
		defer w.mutex.Unlock()
		if seq != w.seq {
			return
		}
		w.run(value)
	})
}

// OnKeyDown handles a key press in the input. Escape clears the query,
// resets immediately and releases focus.
func (w *Widget) OnKeyDown(key string) {
	if !w.Enabled() || key != EscapeKey {
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.cancelPending()
	w.input.SetValue("")
	w.run("")
	w.input.Blur()
}

// OnBlur resets the view when the input lost focus while empty.
func (w *Widget) OnBlur() {
	if !w.Enabled() {
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if strings.TrimSpace(w.input.Value()) != "" {
		return
	}
	w.cancelPending()
	w.run("")
}

// Search runs query immediately, superseding any pending debounced search.
func (w *Widget) Search(query string) Result {
	if !w.Enabled() {
		return Result{Outcome: OutcomeReset}
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.cancelPending()
	return w.run(query)
}

// Close drops any pending search.
func (w *Widget) Close() {
	if !w.Enabled() {
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.cancelPending()
}

func (w *Widget) cancelPending() {
	w.seq++
	w.debouncer.Cancel()
}

// run executes a search. The caller holds the mutex.
func (w *Widget) run(query string) Result {
	res := w.engine.Search(query)
	w.state = stateFor(res.Outcome)

	w.logger.Debug(context.Background(), "Search executed",
		"query", res.Query,
		"outcome", res.Outcome.String(),
		"sections", res.Sections,
		"matches", res.Matches,
	)

	if w.onUpdate != nil {
		w.onUpdate(res, w.state)
	}
	return res
}
