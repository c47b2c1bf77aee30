package minify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		path     string
		expected Kind
	}{
		{"javascripts/main.js", KindJS},
		{"module.MJS", KindJS},
		{"stylesheets/print.css", KindCSS},
		{"index.html", KindHTML},
		{"about.htm", KindHTML},
		{"images/logo.png", KindUnknown},
		{"LICENSE", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.path))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "js", KindJS.String())
	assert.Equal(t, "css", KindCSS.String())
	assert.Equal(t, "html", KindHTML.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestCSS(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "comment, brace spacing and trailing semicolon",
			input:    "/* c */ a { color: red; }",
			expected: "a{color:red}",
		},
		{
			name: "multiple rules and selectors",
			input: `body,
html {
    margin: 0;
    padding: 0;
}

/* header */
h1 , h2 {
    font: 12px/1.5 "Helvetica Neue", Arial;
}`,
			expected: `body,html{margin:0;padding:0} h1 ,h2{font:12px/1.5 "Helvetica Neue",Arial}`,
		},
		{
			name:     "multi-line comment",
			input:    "/*\n * license\n */\np{}",
			expected: "p{}",
		},
		{
			name:     "empty",
			input:    "   \n\t ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CSS(tt.input))
		})
	}
}

func TestCSSExampleHasNoCommentOrTrailingSemicolon(t *testing.T) {
	out := CSS("/* c */ a { color: red; }")

	assert.NotContains(t, out, "c */")
	assert.NotContains(t, out, "/*")
	assert.NotContains(t, out, "{ ")
	assert.NotContains(t, out, ";}")
}

func TestHTML(t *testing.T) {
	input := `<!DOCTYPE html>
<html>
  <!-- nav -->
  <body>
    <h3>Title</h3>
    <p>Some   text
       here</p>
  </body>
</html>
`
	expected := `<!DOCTYPE html><html><body><h3>Title</h3><p>Some text here</p></body></html>`
	assert.Equal(t, expected, HTML(input))
}

func TestJS(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "comments and braces",
			input: `// Search functionality
(function() {
  'use strict';
  /* block */
  var a = 1, b = 2;
  if (a) {
    b = 3;
  }
})();`,
			expected: `(function(){'use strict';var a = 1,b = 2;if (a){b = 3}})();`,
		},
		{
			name:     "url inside string survives",
			input:    "var u = 'https://example.com'; // trailing",
			expected: "var u = 'https://example.com';",
		},
		{
			name:     "regex literal with slashes survives",
			input:    "var re = /\\/\\//g; // comment",
			expected: "var re = /\\/\\//g;",
		},
		{
			name:     "postfix increment before division keeps following code",
			input:    "n = i++ / 2; // half\nrun();",
			expected: "n = i++ / 2;run();",
		},
		{
			name:     "template substitution with backtick keeps following code",
			input:    "s = `a${'`'}b` // c\nrun();",
			expected: "s = `a${'`'}b` run();",
		},
		{
			name:     "template literal keeps comment-like text",
			input:    "var t = `a /* b */ c`;",
			expected: "var t = `a /* b */ c`;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, JS(tt.input))
		})
	}
}

func TestUnicodeWhitespace(t *testing.T) {
	tests := []struct {
		name     string
		minify   func(string) string
		input    string
		expected string
	}{
		{name: "nbsp between tags", minify: HTML, input: "<p>a</p>\u00a0<p>b</p>", expected: "<p>a</p><p>b</p>"},
		{name: "vertical tab between tags", minify: HTML, input: "<p>a</p>\v<p>b</p>", expected: "<p>a</p><p>b</p>"},
		{name: "line separator in css", minify: CSS, input: "a\u2028{\u2028b:\u00a0c;\u2029}", expected: "a{b:c}"},
		{name: "trimmed byte order mark", minify: JS, input: "\ufefff();\u3000", expected: "f();"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.minify(tt.input))
		})
	}
}

func TestJSNaiveCommentsCorruptsStrings(t *testing.T) {
	src := "var u = 'https://example.com';"

	assert.Equal(t, "var u = 'https:", JSWithOptions(src, JSOptions{NaiveComments: true}))
	assert.Equal(t, src, JS(src))
}

func TestStripJSComments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "line comment keeps newline",
			input:    "a(); // x\nb();",
			expected: "a(); \nb();",
		},
		{
			name:     "block comment",
			input:    "a(/* x */1);",
			expected: "a(1);",
		},
		{
			name:     "division is not a regex",
			input:    "var x = a / b; // half\n",
			expected: "var x = a / b; \n",
		},
		{
			name:     "regex after return",
			input:    "return /a\\/\\/b/.test(s); // c",
			expected: "return /a\\/\\/b/.test(s); ",
		},
		{
			name:     "regex with slash inside class",
			input:    "x = /[/]+/; // c",
			expected: "x = /[/]+/; ",
		},
		{
			name:     "escaped quote in string",
			input:    `s = "a\"//b"; // c`,
			expected: `s = "a\"//b"; `,
		},
		{
			name:     "division after postfix increment",
			input:    "n = i++ / 2; // half\nrun();",
			expected: "n = i++ / 2; \nrun();",
		},
		{
			name:     "division after postfix decrement",
			input:    "n = i-- / 2; // half\nrun();",
			expected: "n = i-- / 2; \nrun();",
		},
		{
			name:     "regex after binary plus",
			input:    "s = a + /x\\/\\/y/.source; // c",
			expected: "s = a + /x\\/\\/y/.source; ",
		},
		{
			name:     "backtick inside template substitution",
			input:    "s = `a${'`'}b` // c\nrun();",
			expected: "s = `a${'`'}b` \nrun();",
		},
		{
			name:     "nested template and braces in substitution",
			input:    "s = `${f({k: `//${x}`})}` // c\nrun();",
			expected: "s = `${f({k: `//${x}`})}` \nrun();",
		},
		{
			name:     "unterminated block comment",
			input:    "a(); /* never closed",
			expected: "a(); ",
		},
		{
			name:     "trailing line comment without newline",
			input:    "a(); // end",
			expected: "a(); ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripJSComments(tt.input))
		})
	}
}

func TestMinifierDispatch(t *testing.T) {
	m := Minifier{}

	assert.Equal(t, "a{b:c}", m.Minify(KindCSS, "a { b: c; }"))
	assert.Equal(t, "<p>x</p>", m.Minify(KindHTML, "<!-- y --> <p>x</p>"))
	assert.Equal(t, "f();", m.Minify(KindJS, "f(); // z"))
	assert.Equal(t, "raw  bytes\n", m.Minify(KindUnknown, "raw  bytes\n"))

	naive := Minifier{JS: JSOptions{NaiveComments: true}}
	assert.Equal(t, "x = '", naive.Minify(KindJS, "x = '//'"))
}
