package clipclean

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Catalog Operation Tests
// ============================================================================

func TestProcessOperations(t *testing.T) {
	tests := []struct {
		desc     string
		mode     ProcessingMode
		input    string
		opts     *ProcessingOptions
		expected string
	}{
		// Line breaks and whitespace
		{"Line breaks become spaces", ModeRemoveLineBreaks, "a\r\nb\nc", nil, "a b c"},
		{"Lone carriage return kept", ModeRemoveLineBreaks, "a\rb", nil, "a\rb"},
		{"No trailing cleanup", ModeRemoveLineBreaks, "a\n\n", nil, "a  "},
		{"Whitespace collapsed and trimmed", ModeNormalizeWhitespace, "a\t\tb\r\n c", nil, "a b c"},
		{"Whitespace only", ModeNormalizeWhitespace, " \t\n ", nil, ""},
		{"Tabs default width", ModeConvertTabsToSpaces, "\tx", nil, "    x"},
		{"Tabs custom width", ModeConvertTabsToSpaces, "a\tb", opts(WithTabSize(2)), "a  b"},
		{"Tabs zero width", ModeConvertTabsToSpaces, "a\tb", opts(WithTabSize(0)), "ab"},
		{"Trim", ModeTrim, " x ", nil, "x"},
		{"Trim keeps interior", ModeTrim, "\t a  b \n", nil, "a  b"},
		{"Collapse all whitespace", ModeCollapseWhitespaceAll, "a b\tc\r\nd", nil, "abcd"},

		// Casing
		{"Upper", ModeToUpper, "Hello, world", nil, "HELLO, WORLD"},
		{"Lower", ModeToLower, "Hello, WORLD", nil, "hello, world"},
		{"Upper with Turkish culture", ModeToUpper, "istanbul", opts(WithCulture("tr")), "\u0130STANBUL"},
		{"Lower with Turkish culture", ModeToLower, "ISPARTA", opts(WithCulture("tr-TR")), "\u0131sparta"},
		{"Upper with bad culture", ModeToUpper, "istanbul", opts(WithCulture("not a culture!")), "ISTANBUL"},
		{"Title case", ModeToTitleCase, "hello WORLD  foo", nil, "Hello World  Foo"},
		{"Title case leading punctuation", ModeToTitleCase, "(quoted) text", nil, "(Quoted) Text"},
		{"Title case digraph", ModeToTitleCase, "\u01c6emal", nil, "\u01c5emal"},
		{"Pascal case digraph", ModeToPascalCase, "\u01c6emal bijedi\u0107", nil, "\u01c5emalBijedi\u0107"},
		{"Pascal case", ModeToPascalCase, "hello-world_test foo", nil, "HelloWorldTestFoo"},
		{"Pascal case repeated separators", ModeToPascalCase, "  big--BAD__wolf ", nil, "BigBadWolf"},
		{"Camel case", ModeToCamelCase, "hello-world_test foo", nil, "helloWorldTestFoo"},
		{"Camel case lowers first segment", ModeToCamelCase, "HELLO world", nil, "helloWorld"},

		// Character classes
		{"Punctuation removed", ModeRemovePunctuation, "Hello, World!", nil, "Hello World"},
		{"Punctuation next to spaces", ModeRemovePunctuation, "Hello, World! How are you?", nil, "Hello World How are you"},
		{"Punctuation gap not collapsed", ModeRemovePunctuation, "a - b", nil, "a  b"},
		{"Punctuation without space", ModeRemovePunctuation, "Hello,World", nil, "HelloWorld"},
		{"Control characters removed", ModeRemoveControlCharacters, "a\x00b\x07c\x1fd", nil, "abcd"},
		{"Control characters include tab and newline", ModeRemoveControlCharacters, "a\tb\nc", nil, "abc"},

		// Markup and links
		{"URL excised", ModeRemoveUrls, "see https://example.com/a?b=c now", nil, "see  now"},
		{"Bare www URL excised", ModeRemoveUrls, "go to www.example.org today", nil, "go to  today"},
		{"URL scheme ignores case", ModeRemoveUrls, "HTTP://EXAMPLE.COM x", nil, " x"},
		{"Email excised", ModeRemoveEmails, "mail john.doe+tag@example.co.uk today", nil, "mail  today"},
		{"Not an email", ModeRemoveEmails, "user@localhost", nil, "user@localhost"},
		{"HTML tags removed", ModeRemoveHtmlTags, "<p>Hello <b>World</b></p>", nil, "Hello World"},
		{"HTML attributes removed", ModeRemoveHtmlTags, `<a href="x" title="y">link</a> text`, nil, "link text"},
		{"HTML entities kept", ModeRemoveHtmlTags, "a &amp; b", nil, "a &amp; b"},
		{"HTML self-closing", ModeRemoveHtmlTags, "line<br/>next", nil, "linenext"},
		{"HTML lone less-than kept", ModeRemoveHtmlTags, "if a<b then c", nil, "if a<b then c"},
		{"HTML tags inside textarea", ModeRemoveHtmlTags, "<textarea><b>x</b></textarea>z", nil, "xz"},
		{"Markdown links stripped", ModeStripMarkdownLinks, "See [docs](https://x.y) and [b](c).", nil, "See docs and b."},
		{"Markdown link URL with parentheses", ModeStripMarkdownLinks, "[x](https://e.org/Foo_(bar)) end", nil, "x end"},
		{"Markdown image-like text kept", ModeStripMarkdownLinks, "[not a link] (x)", nil, "[not a link] (x)"},

		// Unicode
		{"NFC composes", ModeNormalizeUnicode, "e\u0301", nil, "\u00e9"},
		{"NFD decomposes", ModeNormalizeUnicode, "\u00e9", opts(WithNormalizationForm(FormD)), "e\u0301"},
		{"NFKC folds compatibility", ModeNormalizeUnicode, "\ufb01", opts(WithNormalizationForm(FormKC)), "fi"},
		{"Diacritics combining mark", ModeRemoveDiacritics, "e\u0301", nil, "e"},
		{"Diacritics precomposed", ModeRemoveDiacritics, "Cr\u00e8me Br\u00fbl\u00e9e", nil, "Creme Brulee"},
		{"Diacritics plain ASCII", ModeRemoveDiacritics, "Hello World", nil, "Hello World"},

		// Truncation
		{"Truncate short input", ModeTruncate, "short", opts(WithMaxLength(10)), "short"},
		{"Truncate exact length", ModeTruncate, "12345", opts(WithMaxLength(5)), "12345"},
		{"Truncate with suffix", ModeTruncate, "Hello, World!", opts(WithMaxLength(8)), "Hello..."},
		{"Truncate custom suffix", ModeTruncate, "abcdefgh", opts(WithMaxLength(4), WithTruncateSuffix("\u2026")), "abc\u2026"},
		{"Truncate empty suffix", ModeTruncate, "abcdefgh", opts(WithMaxLength(3), WithTruncateSuffix("")), "abc"},
		{"Truncate suffix longer than limit", ModeTruncate, "abcdefgh", opts(WithMaxLength(2)), "ab"},
		{"Truncate counts characters", ModeTruncate, "\u00e9\u00e9\u00e9\u00e9\u00e9", opts(WithMaxLength(4), WithTruncateSuffix(".")), "\u00e9\u00e9\u00e9."},

		// Lines
		{"Join lines", ModeJoinLinesWithSpace, "a\r\nb\n\nc", nil, "a b c"},
		{"Join single line", ModeJoinLinesWithSpace, "abc", nil, "abc"},
		{"Duplicate lines consecutive only", ModeRemoveDuplicateLines, "A\nA\nB\nA", nil, "A" + LineSeparator + "B" + LineSeparator + "A"},
		{"Duplicate lines CRLF input", ModeRemoveDuplicateLines, "x\r\nx\r\ny", nil, "x" + LineSeparator + "y"},
		{"Duplicate lines none", ModeRemoveDuplicateLines, "a", nil, "a"},

		// Identity
		{"None is identity", ModeNone, " untouched\t", nil, " untouched\t"},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			assert.Equal(t, test.expected, Process(test.input, test.mode, test.opts))
		})
	}
}

func opts(o ...Option) *ProcessingOptions {
	p := NewOptions(o...)
	return &p
}

// ============================================================================
// Dispatcher Contract Tests
// ============================================================================

func TestProcessEmptyInput(t *testing.T) {
	for _, mode := range Modes() {
		t.Run(string(mode), func(t *testing.T) {
			assert.Equal(t, "", Process("", mode, nil))
			assert.Equal(t, "", Process("", mode, opts(WithMaxLength(0))))
		})
	}
}

func TestProcessUnknownModeIsIdentity(t *testing.T) {
	assert.Equal(t, "Some Text", Process("Some Text", ProcessingMode("ReverseWords"), nil))
	assert.Equal(t, "Some Text", Process("Some Text", ProcessingMode(""), nil))
}

func TestProcessNilOptionsUseDefaults(t *testing.T) {
	long := strings.Repeat("x", DefaultMaxLength+10)
	result := Process(long, ModeTruncate, nil)
	assert.Equal(t, DefaultMaxLength, utf8.RuneCountInString(result))
	assert.True(t, strings.HasSuffix(result, DefaultTruncateSuffix))
}

func TestModesMatchCatalog(t *testing.T) {
	modes := Modes()
	require.Len(t, modes, 22)
	assert.Equal(t, ModeNone, modes[0])
	for _, mode := range modes {
		assert.True(t, mode.Known(), mode)
		assert.Equal(t, "Mode_"+string(mode), mode.ResourceKey())
	}
	assert.Len(t, GetOperations(), len(modes))
}

func TestParseMode(t *testing.T) {
	mode, ok := ParseMode("removehtmltags")
	assert.True(t, ok)
	assert.Equal(t, ModeRemoveHtmlTags, mode)

	mode, ok = ParseMode("FutureMode")
	assert.False(t, ok)
	assert.Equal(t, ProcessingMode("FutureMode"), mode)
	assert.False(t, mode.Known())
	assert.Equal(t, "Mode_None", mode.ResourceKey())
}

// ============================================================================
// Property Tests
// ============================================================================

func TestTruncateLength(t *testing.T) {
	inputs := []string{
		"The quick brown fox jumps over the lazy dog",
		"ünïcödé ünïcödé ünïcödé",
		"0123456789",
	}
	for _, input := range inputs {
		for n := 3; n <= 12; n++ {
			result := Process(input, ModeTruncate, opts(WithMaxLength(n)))
			if utf8.RuneCountInString(input) <= n {
				assert.Equal(t, input, result)
				continue
			}
			assert.Equal(t, n, utf8.RuneCountInString(result), "%q truncated to %d", input, n)
			assert.True(t, strings.HasSuffix(result, "..."), result)
		}
	}
}

func TestIdempotentOperations(t *testing.T) {
	inputs := []string{
		"  a\t\tb\r\n c  ",
		"plain",
		"\n\n\tx  y\n",
		" ",
	}
	for _, input := range inputs {
		once := Process(input, ModeNormalizeWhitespace, nil)
		assert.Equal(t, once, Process(once, ModeNormalizeWhitespace, nil), "NormalizeWhitespace(%q)", input)

		once = Process(input, ModeTrim, nil)
		assert.Equal(t, once, Process(once, ModeTrim, nil), "Trim(%q)", input)
	}
}

func TestCamelMatchesPascal(t *testing.T) {
	input := "hello-world_test foo"
	pascal := Process(input, ModeToPascalCase, nil)
	camel := Process(input, ModeToCamelCase, nil)
	assert.Equal(t, strings.ToLower(pascal[:1])+pascal[1:], camel)
}

func TestUpperThenTruncate(t *testing.T) {
	result := Process(Process("hello world", ModeToUpper, nil), ModeTruncate, opts(WithMaxLength(5), WithTruncateSuffix("")))
	assert.Equal(t, "HELLO", result)
}

func TestCountCharacters(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		desc     string
	}{
		{"", 0, "Empty"},
		{"hello", 5, "ASCII"},
		{"h\u00e9llo", 5, "Latin-1"},
		{"日本", 2, "CJK"},
		{"a😀b", 4, "Surrogate pair counts twice"},
		{"e\u0301", 2, "Combining mark counts separately"},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			assert.Equal(t, test.expected, CountCharacters(test.input))
		})
	}
}
