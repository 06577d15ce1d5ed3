package clipclean

import "strings"

// ProcessingMode names one catalog operation. Modes persist by name; a name
// this build does not know is kept as-is and processed as the identity.
type ProcessingMode string

const (
	ModeNone                    ProcessingMode = "None"
	ModeRemoveLineBreaks        ProcessingMode = "RemoveLineBreaks"
	ModeNormalizeWhitespace     ProcessingMode = "NormalizeWhitespace"
	ModeConvertTabsToSpaces     ProcessingMode = "ConvertTabsToSpaces"
	ModeTrim                    ProcessingMode = "Trim"
	ModeToUpper                 ProcessingMode = "ToUpper"
	ModeToLower                 ProcessingMode = "ToLower"
	ModeToTitleCase             ProcessingMode = "ToTitleCase"
	ModeToPascalCase            ProcessingMode = "ToPascalCase"
	ModeToCamelCase             ProcessingMode = "ToCamelCase"
	ModeRemovePunctuation       ProcessingMode = "RemovePunctuation"
	ModeRemoveControlCharacters ProcessingMode = "RemoveControlCharacters"
	ModeRemoveUrls              ProcessingMode = "RemoveUrls"
	ModeRemoveEmails            ProcessingMode = "RemoveEmails"
	ModeRemoveHtmlTags          ProcessingMode = "RemoveHtmlTags"
	ModeStripMarkdownLinks      ProcessingMode = "StripMarkdownLinks"
	ModeNormalizeUnicode        ProcessingMode = "NormalizeUnicode"
	ModeRemoveDiacritics        ProcessingMode = "RemoveDiacritics"
	ModeTruncate                ProcessingMode = "Truncate"
	ModeJoinLinesWithSpace      ProcessingMode = "JoinLinesWithSpace"
	ModeRemoveDuplicateLines    ProcessingMode = "RemoveDuplicateLines"
	ModeCollapseWhitespaceAll   ProcessingMode = "CollapseWhitespaceAll"
)

// Modes lists every known mode in catalog order.
func Modes() []ProcessingMode {
	modes := make([]ProcessingMode, len(operations))
	for i, op := range operations {
		modes[i] = op.Mode
	}
	return modes
}

// Known reports whether the mode maps to a catalog operation in this build.
func (m ProcessingMode) Known() bool {
	_, ok := operationIndex[m]
	return ok
}

// ParseMode looks a mode up by name, ignoring case.
func ParseMode(name string) (ProcessingMode, bool) {
	for _, op := range operations {
		if strings.EqualFold(string(op.Mode), name) {
			return op.Mode, true
		}
	}
	return ProcessingMode(name), false
}

// ResourceKey returns the localization key for the mode's display name.
func (m ProcessingMode) ResourceKey() string {
	if key, ok := modeResourceKeys[m]; ok {
		return key
	}
	return modeResourceKeys[ModeNone]
}

var modeResourceKeys = map[ProcessingMode]string{
	ModeNone:                    "Mode_None",
	ModeRemoveLineBreaks:        "Mode_RemoveLineBreaks",
	ModeNormalizeWhitespace:     "Mode_NormalizeWhitespace",
	ModeConvertTabsToSpaces:     "Mode_ConvertTabsToSpaces",
	ModeTrim:                    "Mode_Trim",
	ModeToUpper:                 "Mode_ToUpper",
	ModeToLower:                 "Mode_ToLower",
	ModeToTitleCase:             "Mode_ToTitleCase",
	ModeToPascalCase:            "Mode_ToPascalCase",
	ModeToCamelCase:             "Mode_ToCamelCase",
	ModeRemovePunctuation:       "Mode_RemovePunctuation",
	ModeRemoveControlCharacters: "Mode_RemoveControlCharacters",
	ModeRemoveUrls:              "Mode_RemoveUrls",
	ModeRemoveEmails:            "Mode_RemoveEmails",
	ModeRemoveHtmlTags:          "Mode_RemoveHtmlTags",
	ModeStripMarkdownLinks:      "Mode_StripMarkdownLinks",
	ModeNormalizeUnicode:        "Mode_NormalizeUnicode",
	ModeRemoveDiacritics:        "Mode_RemoveDiacritics",
	ModeTruncate:                "Mode_Truncate",
	ModeJoinLinesWithSpace:      "Mode_JoinLinesWithSpace",
	ModeRemoveDuplicateLines:    "Mode_RemoveDuplicateLines",
	ModeCollapseWhitespaceAll:   "Mode_CollapseWhitespaceAll",
}
