package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusText(t *testing.T) {
	assert.Equal(t, "No results found", StatusText(0))
	assert.Equal(t, "Found 1 section with matches", StatusText(1))
	assert.Equal(t, "Found 2 sections with matches", StatusText(2))
	assert.Equal(t, "Found 12 sections with matches", StatusText(12))
}

func TestEngineSearch(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		outcome Outcome
		matches int
		status  string
		visible bool
		html    string
	}{
		{
			name:    "two sections",
			query:   "go",
			outcome: OutcomeMatch,
			matches: 2,
			status:  "Found 2 sections with matches",
			visible: true,
			html: `<p hidden>Welcome to btcsuite.</p>` +
				`<h3>btcd</h3>` +
				`<p>A full node written in <mark>Go</mark>.</p>` +
				`<pre><code>go install btcd</code></pre>` +
				`<h3>btcwallet</h3>` +
				`<p>A wallet daemon.</p>` +
				`<ul><li>Supports <em><mark>Go</mark></em> RPC</li></ul>` +
				`<h3 hidden>bolt</h3>` +
				`<p hidden>Uses the BOLT database and a Bolt cursor.</p>`,
		},
		{
			name:    "single section is case-insensitive",
			query:   "BOLT",
			outcome: OutcomeMatch,
			matches: 1,
			status:  "Found 1 section with matches",
			visible: true,
			html: `<p hidden>Welcome to btcsuite.</p>` +
				`<h3 hidden>btcd</h3>` +
				`<p hidden>A full node written in Go.</p>` +
				`<pre hidden><code>go install btcd</code></pre>` +
				`<h3 hidden>btcwallet</h3>` +
				`<p hidden>A wallet daemon.</p>` +
				`<ul hidden><li>Supports <em>Go</em> RPC</li></ul>` +
				`<h3><mark>bolt</mark></h3>` +
				`<p>Uses the <mark>BOLT</mark> database and a <mark>Bolt</mark> cursor.</p>`,
		},
		{
			name:    "section matched through code only",
			query:   "install",
			outcome: OutcomeMatch,
			matches: 1,
			status:  "Found 1 section with matches",
			visible: true,
			html: `<p hidden>Welcome to btcsuite.</p>` +
				`<h3>btcd</h3>` +
				`<p>A full node written in Go.</p>` +
				`<pre><code>go install btcd</code></pre>` +
				`<h3 hidden>btcwallet</h3>` +
				`<p hidden>A wallet daemon.</p>` +
				`<ul hidden><li>Supports <em>Go</em> RPC</li></ul>` +
				`<h3 hidden>bolt</h3>` +
				`<p hidden>Uses the BOLT database and a Bolt cursor.</p>`,
		},
		{
			name:    "no match",
			query:   "lightning",
			outcome: OutcomeNoMatch,
			status:  "No results found",
			visible: true,
			html:    `<p>No results found. Try a different search term.</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sampleContent()
			status := &memStatus{}
			res := NewEngine(c, status, "").Search(tt.query)

			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.matches, res.Matches)
			assert.Equal(t, 4, res.Sections)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.status, status.text)
			assert.Equal(t, tt.visible, status.visible)
			assert.Equal(t, tt.html, c.html())
		})
	}
}

func TestEngineResetRestoresPristine(t *testing.T) {
	c := sampleContent()
	pristine := c.html()
	status := &memStatus{}
	e := NewEngine(c, status, "")

	for _, q := range []string{"", "   ", "\t\n"} {
		e.Search("bolt")
		require.NotEqual(t, pristine, c.html())

		res := e.Search(q)
		assert.Equal(t, OutcomeReset, res.Outcome)
		assert.Equal(t, pristine, c.html())
		assert.Empty(t, status.text)
		assert.False(t, status.visible)
	}
}

func TestEngineSearchIsIdempotent(t *testing.T) {
	c := sampleContent()
	e := NewEngine(c, &memStatus{}, "")

	for _, q := range []string{"go", "bolt", "a", "lightning"} {
		first := e.Search(q)
		firstHTML := c.html()
		second := e.Search(q)

		assert.Equal(t, first, second, q)
		assert.Equal(t, firstHTML, c.html(), q)
	}
}

func TestEngineRecoversFromPlaceholder(t *testing.T) {
	c := sampleContent()
	e := NewEngine(c, &memStatus{}, "")

	e.Search("lightning")
	res := e.Search("wallet")
	assert.Equal(t, OutcomeMatch, res.Outcome)
	assert.Equal(t, 1, res.Matches)
	assert.Contains(t, c.html(), "<h3>btc<mark>wallet</mark></h3>")
}

func TestEngineTrimsQuery(t *testing.T) {
	res := NewEngine(sampleContent(), &memStatus{}, "").Search("  bolt\t")
	assert.Equal(t, "bolt", res.Query)
	assert.Equal(t, 1, res.Matches)
}

func TestEngineLiteralMetacharacters(t *testing.T) {
	c := newContainer(
		el("p", txt("Use a.b*c literally")),
		el("h3", txt("other")),
		el("p", txt("aXbbbc")),
	)
	res := NewEngine(c, &memStatus{}, "").Search("a.b*c")

	assert.Equal(t, 1, res.Matches)
	assert.Equal(t,
		`<p>Use <mark>a.b*c</mark> literally</p><h3 hidden>other</h3><p hidden>aXbbbc</p>`,
		c.html())
}

func TestEngineCustomPlaceholderAndNilStatus(t *testing.T) {
	c := sampleContent()
	res := NewEngine(c, nil, "Nothing here").Search("lightning")

	assert.Equal(t, OutcomeNoMatch, res.Outcome)
	assert.Equal(t, "<p>Nothing here</p>", c.html())
}

func TestEngineCodeNeverMutated(t *testing.T) {
	c := newContainer(
		el("h3", txt("usage")),
		el("p", txt("call usage() like so")),
		el("pre", el("code", txt("usage()"))),
		el("div", el("code", txt("usage")), txt(" usage")),
	)
	NewEngine(c, &memStatus{}, "").Search("usage")

	assert.Equal(t,
		`<h3><mark>usage</mark></h3>`+
			`<p>call <mark>usage</mark>() like so</p>`+
			`<pre><code>usage()</code></pre>`+
			`<div><code>usage</code> <mark>usage</mark></div>`,
		c.html())
}
