package flow

import (
	"regexp"

	"github.com/richinex/genlo/model"
)

// historyImagePatterns find images embedded in turn content. Each has one
// capture group holding the image reference.
var historyImagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[Image:\s*([^\]\s]+)\s*\]`),
	regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`),
	regexp.MustCompile(`(data:image/[a-zA-Z0-9.+-]+;base64,[A-Za-z0-9+/=]+)`),
}

// effectiveReference picks the image a lifestyle request should be based
// on: the explicit reference, then the newest image embedded in recent
// history, then the newest recorded reference image.
func (c *Controller) effectiveReference(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if ref := imageFromHistory(c.history.Last(model.HistoryScanWindow)); ref != "" {
		return ref
	}
	if n := len(c.references); n > 0 {
		return c.references[n-1].URL
	}
	return ""
}

// imageFromHistory scans turns newest to oldest and returns the last image
// reference found in the first turn that has one.
func imageFromHistory(turns []model.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if ref := lastImageIn(turns[i].Content); ref != "" {
			return ref
		}
	}
	return ""
}

func lastImageIn(content string) string {
	best, bestAt := "", -1
	for _, re := range historyImagePatterns {
		for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
			if m[2] > bestAt {
				best, bestAt = content[m[2]:m[3]], m[2]
			}
		}
	}
	return best
}
