//go:build !windows

package clipclean

// LineSeparator joins the lines rebuilt by RemoveDuplicateLines.
const LineSeparator = "\n"
