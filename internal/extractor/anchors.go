package extractor

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// The identity comment is written by the browser when the posting page is
// saved: "<!-- saved from url=(NNNN)https://.../jobs/view/1234567890/ -->".
// The URL starts at a fixed byte offset and the 10-digit external id sits at
// a fixed offset from the end of the comment text.
const (
	identityURLOffset = 22
	identityIDWidth   = 10
	identityIDTrailer = 2
)

// Class tokens identifying the title/company/location block. The block is
// the first div in document order whose class set matches exactly.
var titleBlockClasses = []string{"mt6", "ml5", "flex-grow-1"}

// identityAnchor locates the identity comment near the document root and
// parses the canonical posting URL and external id out of it.
func identityAnchor(doc *goquery.Document) (int64, string, error) {
	comment, ok := firstComment(doc)
	if !ok {
		return 0, "", &ExtractionError{Reason: "missing identity marker"}
	}

	if len(comment) < identityURLOffset+identityIDWidth+identityIDTrailer {
		return 0, "", &ExtractionError{Reason: "malformed identity marker"}
	}

	url := strings.TrimSpace(comment[identityURLOffset:])
	idText := comment[len(comment)-identityIDWidth-identityIDTrailer : len(comment)-identityIDTrailer]

	id, err := strconv.ParseInt(strings.TrimSpace(idText), 10, 64)
	if err != nil {
		return 0, "", &ExtractionError{Reason: "malformed identity marker"}
	}

	return id, url, nil
}

// firstComment returns the text of the first comment node in document order
func firstComment(doc *goquery.Document) (string, bool) {
	var comment string
	var found bool

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.CommentNode {
			comment = n.Data
			found = true
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range doc.Nodes {
		walk(n)
	}
	return comment, found
}

// contentContainer locates the primary article tag carrying the posting
// text and the detail groups.
func contentContainer(doc *goquery.Document) (*goquery.Selection, error) {
	article := doc.Find("article").First()
	if article.Length() == 0 {
		return nil, &ExtractionError{Reason: "content container not found"}
	}
	return article, nil
}

// titleBlock scans all divs for the block whose class marker set matches
// titleBlockClasses and reads title, company and location out of it. The
// company and location line offsets within the secondary heading are a
// structural contract of the source template.
func titleBlock(doc *goquery.Document) (title, company, location string, err error) {
	var block *goquery.Selection

	doc.Find("div").EachWithBreak(func(i int, s *goquery.Selection) bool {
		class, exists := s.Attr("class")
		if !exists {
			return true
		}
		if matchesTitleBlock(strings.Fields(class)) {
			block = s
			return false
		}
		return true
	})

	if block == nil {
		return "", "", "", &ExtractionError{Reason: "title block not found"}
	}

	title = JoinLines(CleanLines(block.Find("h1").First().Text()))
	if title == "" {
		return "", "", "", &ExtractionError{Reason: "title heading not found"}
	}

	// Tag positions inside the secondary heading are not consistent across
	// pages; company and location sit on fixed line offsets instead.
	lines := CleanLines(block.Find("h3").First().Text())
	if len(lines) < 4 {
		return "", "", "", &ExtractionError{Reason: "company and location lines not found"}
	}

	return title, lines[1], lines[3], nil
}

// matchesTitleBlock reports whether a class token list matches the known
// marker set exactly
func matchesTitleBlock(tokens []string) bool {
	if len(tokens) != len(titleBlockClasses) {
		return false
	}
	for _, want := range titleBlockClasses {
		found := false
		for _, token := range tokens {
			if token == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
