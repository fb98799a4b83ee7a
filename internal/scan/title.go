package scan

import (
	"strings"
)

const maxTitleRunes = 100

// ExtractTitle returns the text of the first <title>...</title> pair, with
// whitespace collapsed, mojibake repaired and the result cut to 100
// characters. Tags are matched case-sensitively by substring search.
func ExtractTitle(html string) (title string) {
	defer func() {
		if recover() != nil {
			title = NoTitle
		}
	}()

	start := strings.Index(html, "<title>")
	if start == -1 {
		return NoTitle
	}
	start += len("<title>")
	end := strings.Index(html[start:], "</title>")
	if end == -1 {
		return NoTitle
	}

	title = strings.Join(strings.Fields(html[start:start+end]), " ")
	if title == "" {
		return NoTitle
	}
	title = FixCommonEncodingIssues(title)

	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}
	return title
}
