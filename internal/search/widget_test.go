package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widgetFixture struct {
	clock     *fakeClock
	container *memContainer
	input     *memInput
	status    *memStatus
	widget    *Widget
	results   []Result
	pristine  string
}

func newWidgetFixture(t *testing.T) *widgetFixture {
	t.Helper()
	f := &widgetFixture{
		clock:     &fakeClock{},
		container: sampleContent(),
		input:     &memInput{},
		status:    &memStatus{},
	}
	f.pristine = f.container.html()
	f.widget = Attach(f.container, f.input, f.status,
		WithClock(f.clock),
		WithUpdateHandler(func(res Result, _ State) {
			f.results = append(f.results, res)
		}),
	)
	require.True(t, f.widget.Enabled())
	return f
}

func TestWidgetDebouncesTyping(t *testing.T) {
	f := newWidgetFixture(t)

	for _, v := range []string{"b", "bo", "bol", "bolt"} {
		f.widget.OnInput(v)
		f.clock.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, f.results)
	assert.Equal(t, StateDebouncePending, f.widget.State())
	assert.Equal(t, f.pristine, f.container.html())

	f.clock.Advance(200 * time.Millisecond)
	require.Len(t, f.results, 1)
	assert.Equal(t, "bolt", f.results[0].Query)
	assert.Equal(t, StateFilteredMatch, f.widget.State())
	assert.Equal(t, "Found 1 section with matches", f.status.text)

	f.clock.Advance(time.Second)
	assert.Len(t, f.results, 1)
}

func TestWidgetNoMatchState(t *testing.T) {
	f := newWidgetFixture(t)

	f.widget.OnInput("lightning")
	f.clock.Advance(DefaultDebounce)

	assert.Equal(t, StateFilteredNoMatch, f.widget.State())
	assert.Equal(t, "No results found", f.status.text)
	assert.True(t, f.status.visible)
}

func TestWidgetEscapeResetsImmediately(t *testing.T) {
	f := newWidgetFixture(t)

	f.widget.OnInput("go")
	f.clock.Advance(DefaultDebounce)
	require.Equal(t, StateFilteredMatch, f.widget.State())

	f.widget.OnInput("gone")
	f.widget.OnKeyDown(EscapeKey)

	assert.Equal(t, StateIdle, f.widget.State())
	assert.Empty(t, f.input.value)
	assert.Equal(t, 1, f.input.blurred)
	assert.Equal(t, f.pristine, f.container.html())
	assert.False(t, f.status.visible)

	// the pending "gone" search was cancelled
	f.clock.Advance(time.Second)
	assert.Equal(t, StateIdle, f.widget.State())
	require.Len(t, f.results, 2)
	assert.Equal(t, OutcomeReset, f.results[1].Outcome)
}

func TestWidgetIgnoresOtherKeys(t *testing.T) {
	f := newWidgetFixture(t)

	f.widget.OnInput("go")
	f.widget.OnKeyDown("Enter")
	assert.Equal(t, StateDebouncePending, f.widget.State())
	assert.Equal(t, 0, f.input.blurred)
}

func TestWidgetBlur(t *testing.T) {
	t.Run("empty input resets", func(t *testing.T) {
		f := newWidgetFixture(t)
		f.widget.OnInput("bolt")
		f.clock.Advance(DefaultDebounce)

		f.input.value = "  "
		f.widget.OnBlur()

		assert.Equal(t, StateIdle, f.widget.State())
		assert.Equal(t, f.pristine, f.container.html())
	})

	t.Run("non-empty input keeps filter", func(t *testing.T) {
		f := newWidgetFixture(t)
		f.widget.OnInput("bolt")
		f.clock.Advance(DefaultDebounce)

		f.widget.OnBlur()
		assert.Equal(t, StateFilteredMatch, f.widget.State())
		assert.Len(t, f.results, 1)
	})

	t.Run("blur while empty is idempotent", func(t *testing.T) {
		f := newWidgetFixture(t)
		f.widget.OnBlur()
		f.widget.OnBlur()

		assert.Equal(t, StateIdle, f.widget.State())
		assert.Equal(t, f.pristine, f.container.html())
		assert.Len(t, f.results, 2)
	})
}

func TestWidgetClearingQueryResets(t *testing.T) {
	f := newWidgetFixture(t)

	f.widget.OnInput("bolt")
	f.clock.Advance(DefaultDebounce)
	f.widget.OnInput("")
	f.clock.Advance(DefaultDebounce)

	assert.Equal(t, StateIdle, f.widget.State())
	assert.Equal(t, f.pristine, f.container.html())
	assert.Empty(t, f.status.text)
}

func TestWidgetSearchSupersedesPending(t *testing.T) {
	f := newWidgetFixture(t)

	f.widget.OnInput("go")
	res := f.widget.Search("bolt")
	assert.Equal(t, 1, res.Matches)

	f.clock.Advance(time.Second)
	require.Len(t, f.results, 1)
	assert.Equal(t, "bolt", f.results[0].Query)
}

func TestWidgetCustomDebounce(t *testing.T) {
	clock := &fakeClock{}
	c := sampleContent()
	w := Attach(c, &memInput{}, &memStatus{}, WithClock(clock), WithDebounce(50*time.Millisecond))

	w.OnInput("bolt")
	clock.Advance(49 * time.Millisecond)
	assert.Equal(t, StateDebouncePending, w.State())
	clock.Advance(time.Millisecond)
	assert.Equal(t, StateFilteredMatch, w.State())
}

func TestWidgetClose(t *testing.T) {
	f := newWidgetFixture(t)
	f.widget.OnInput("bolt")
	f.widget.Close()

	f.clock.Advance(time.Second)
	assert.Empty(t, f.results)
}

func TestWidgetDisabled(t *testing.T) {
	tests := []struct {
		name      string
		container Container
		input     Input
	}{
		{"missing container", nil, &memInput{}},
		{"missing input", sampleContent(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			w := Attach(tt.container, tt.input, &memStatus{},
				WithUpdateHandler(func(Result, State) { called = true }))

			assert.False(t, w.Enabled())
			assert.NotPanics(t, func() {
				w.OnInput("bolt")
				w.OnKeyDown(EscapeKey)
				w.OnBlur()
				w.Close()
				assert.Equal(t, OutcomeReset, w.Search("bolt").Outcome)
			})
			assert.Equal(t, StateIdle, w.State())
			assert.False(t, called)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "debounce_pending", StateDebouncePending.String())
	assert.Equal(t, "filtered_match", StateFilteredMatch.String())
	assert.Equal(t, "filtered_no_match", StateFilteredNoMatch.String())
	assert.Equal(t, "unknown", State(42).String())
}
