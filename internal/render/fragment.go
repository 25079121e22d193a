package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// shell wraps a captured fragment in a neutral document so renders do
// not depend on the original page's stylesheets being reachable.
const shell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { margin: 0; padding: 16px; font-family: Helvetica, Arial, sans-serif; background: #ffffff; color: #1f2430; }
img { max-width: 100%%; }
</style>
</head>
<body>%s</body>
</html>`

// prepareFragment parses the captured markup, removes script elements
// so captured page javascript never runs during rendering, and wraps
// the result in the neutral shell.
func prepareFragment(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("error while parsing captured markup: %v", err)
	}
	doc.Find("script").Remove()
	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("error while serializing captured markup: %v", err)
	}
	return fmt.Sprintf(shell, body), nil
}
