package clipclean

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Operation represents a text transformation operation
type Operation struct {
	Mode ProcessingMode
	Func func(input string, opts ProcessingOptions) string
}

// operations is the catalog, in the order modes are presented to users.
var operations = []Operation{
	{ModeNone, identity},
	{ModeRemoveLineBreaks, removeLineBreaks},
	{ModeNormalizeWhitespace, normalizeWhitespace},
	{ModeConvertTabsToSpaces, convertTabsToSpaces},
	{ModeTrim, trim},
	{ModeToUpper, toUpper},
	{ModeToLower, toLower},
	{ModeToTitleCase, toTitleCase},
	{ModeToPascalCase, toPascalCase},
	{ModeToCamelCase, toCamelCase},
	{ModeRemovePunctuation, removePunctuation},
	{ModeRemoveControlCharacters, removeControlCharacters},
	{ModeRemoveUrls, removeUrls},
	{ModeRemoveEmails, removeEmails},
	{ModeRemoveHtmlTags, removeHtmlTags},
	{ModeStripMarkdownLinks, stripMarkdownLinks},
	{ModeNormalizeUnicode, normalizeUnicode},
	{ModeRemoveDiacritics, removeDiacritics},
	{ModeTruncate, truncate},
	{ModeJoinLinesWithSpace, joinLinesWithSpace},
	{ModeRemoveDuplicateLines, removeDuplicateLines},
	{ModeCollapseWhitespaceAll, collapseWhitespaceAll},
}

var operationIndex = func() map[ProcessingMode]Operation {
	idx := make(map[ProcessingMode]Operation, len(operations))
	for _, op := range operations {
		idx[op.Mode] = op
	}
	return idx
}()

// GetOperations returns all available text operations
func GetOperations() []Operation {
	return append([]Operation(nil), operations...)
}

// Process applies the operation named by mode to input. Nil options select
// DefaultOptions. ModeNone and modes unknown to this build return input unchanged.
func Process(input string, mode ProcessingMode, opts *ProcessingOptions) string {
	if input == "" {
		return ""
	}
	op, ok := operationIndex[mode]
	if !ok {
		return input
	}
	return op.Func(input, resolveOptions(opts))
}

// CountCharacters returns the length of s in UTF-16 code units.
func CountCharacters(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

var (
	lineBreakReplacer = strings.NewReplacer("\r\n", " ", "\n", " ")

	urlPattern          = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+`)
	emailPattern        = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	markdownLinkPattern = regexp.MustCompile(`\[([^\[\]]*)\]\((?:[^()]|\([^()]*\))*\)`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
)

// Operation implementations

func identity(input string, _ ProcessingOptions) string {
	return input
}

func removeLineBreaks(input string, _ ProcessingOptions) string {
	return lineBreakReplacer.Replace(input)
}

func normalizeWhitespace(input string, _ ProcessingOptions) string {
	return strings.Join(strings.Fields(input), " ")
}

func convertTabsToSpaces(input string, opts ProcessingOptions) string {
	return strings.ReplaceAll(input, "\t", strings.Repeat(" ", opts.TabSize()))
}

func trim(input string, _ ProcessingOptions) string {
	return strings.TrimSpace(input)
}

func toUpper(input string, opts ProcessingOptions) string {
	return cases.Upper(opts.Culture()).String(input)
}

func toLower(input string, opts ProcessingOptions) string {
	return cases.Lower(opts.Culture()).String(input)
}

// toTitleCase capitalizes the first letter of every whitespace-delimited
// word and lower-cases the rest.
func toTitleCase(input string, opts ProcessingOptions) string {
	lower := cases.Lower(opts.Culture())
	title := cases.Title(opts.Culture())

	var result strings.Builder
	result.Grow(len(input))

	start := -1
	for i, r := range input {
		if unicode.IsSpace(r) {
			if start >= 0 {
				result.WriteString(capitalizeFirstLetter(input[start:i], lower, title))
				start = -1
			}
			result.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		result.WriteString(capitalizeFirstLetter(input[start:], lower, title))
	}

	return result.String()
}

// capitalizeFirstLetter title-cases the first letter, so digraphs such as
// "ǆ" become "ǅ" rather than "Ǆ".
func capitalizeFirstLetter(word string, lower, title cases.Caser) string {
	word = lower.String(word)
	i := strings.IndexFunc(word, unicode.IsLetter)
	if i < 0 {
		return word
	}
	_, size := utf8.DecodeRuneInString(word[i:])
	return word[:i] + title.String(word[i:i+size]) + word[i+size:]
}

// identifierWords splits on the separators recognised by the identifier casings.
func identifierWords(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
}

func capitalizeSegment(segment string, lower, title cases.Caser) string {
	_, size := utf8.DecodeRuneInString(segment)
	return title.String(segment[:size]) + lower.String(segment[size:])
}

func toPascalCase(input string, opts ProcessingOptions) string {
	lower := cases.Lower(opts.Culture())
	title := cases.Title(opts.Culture())

	var result strings.Builder
	for _, word := range identifierWords(input) {
		result.WriteString(capitalizeSegment(word, lower, title))
	}
	return result.String()
}

func toCamelCase(input string, opts ProcessingOptions) string {
	lower := cases.Lower(opts.Culture())
	title := cases.Title(opts.Culture())

	var result strings.Builder
	for i, word := range identifierWords(input) {
		if i == 0 {
			result.WriteString(lower.String(word))
			continue
		}
		result.WriteString(capitalizeSegment(word, lower, title))
	}
	return result.String()
}

// removePunctuation drops Unicode punctuation (category P). The gaps it leaves
// are not collapsed.
func removePunctuation(input string, _ ProcessingOptions) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, input)
}

// removeControlCharacters drops category Cc, line breaks and tabs included.
func removeControlCharacters(input string, _ ProcessingOptions) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}

func removeUrls(input string, _ ProcessingOptions) string {
	return urlPattern.ReplaceAllString(input, "")
}

func removeEmails(input string, _ ProcessingOptions) string {
	return emailPattern.ReplaceAllString(input, "")
}

// removeHtmlTags excises every <...> run and keeps the text around it. A '<'
// without a closing '>' is text. Entities and line endings are left as written.
func removeHtmlTags(input string, _ ProcessingOptions) string {
	return htmlTagPattern.ReplaceAllString(input, "")
}

func stripMarkdownLinks(input string, _ ProcessingOptions) string {
	return markdownLinkPattern.ReplaceAllString(input, "$1")
}

func normalizeUnicode(input string, opts ProcessingOptions) string {
	return opts.NormalizationForm().normForm().String(input)
}

func removeDiacritics(input string, _ ProcessingOptions) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, input)
	if err != nil {
		return input
	}
	return result
}

// truncate counts runes so a code point is never split. When maxLength
// cannot hold the suffix the input is cut to maxLength without one.
func truncate(input string, opts ProcessingOptions) string {
	maxLength := opts.MaxLength()
	if utf8.RuneCountInString(input) <= maxLength {
		return input
	}

	chars := []rune(input)
	suffix := opts.TruncateSuffix()
	keep := maxLength - utf8.RuneCountInString(suffix)
	if keep < 0 {
		return string(chars[:maxLength])
	}
	return string(chars[:keep]) + suffix
}

func joinLinesWithSpace(input string, _ ProcessingOptions) string {
	var kept []string
	for _, line := range splitLines(input) {
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}

// removeDuplicateLines drops a line equal to the one right before it.
func removeDuplicateLines(input string, _ ProcessingOptions) string {
	lines := splitLines(input)
	kept := make([]string, 0, len(lines))
	kept = append(kept, lines[0])
	for _, line := range lines[1:] {
		if line != kept[len(kept)-1] {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, LineSeparator)
}

func collapseWhitespaceAll(input string, _ ProcessingOptions) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
}

// Helper functions

// splitLines splits on "\r\n" and "\n".
func splitLines(input string) []string {
	return strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
}
