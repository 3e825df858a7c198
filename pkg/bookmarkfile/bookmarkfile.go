// Package bookmarkfile reads and writes Netscape bookmark HTML, the format
// browsers export, carrying tags in the TAGS attribute.
package bookmarkfile

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Bookmark is one link from an exported bookmarks file
type Bookmark struct {
	URL   string
	Title string
	Tags  []string
}

// Parse extracts every http(s) link that has a title. Existing tags come
// from the comma-separated TAGS attribute.
func Parse(r io.Reader) ([]Bookmark, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var bookmarks []Bookmark
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(href, "http") {
			return
		}

		title := strings.TrimSpace(s.Text())
		if title == "" {
			return
		}

		raw, _ := s.Attr("tags")
		bookmarks = append(bookmarks, Bookmark{
			URL:   href,
			Title: title,
			Tags:  splitTags(raw),
		})
	})

	return bookmarks, nil
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

const header = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file. -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
`

// Write emits bookmarks as a flat Netscape bookmark list. Tagged entries
// also get a "<DD>Tags:" description line.
func Write(w io.Writer, bookmarks []Bookmark) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(header); err != nil {
		return err
	}
	for _, b := range bookmarks {
		tags := html.EscapeString(strings.Join(b.Tags, ", "))
		fmt.Fprintf(bw, "    <DT><A HREF=\"%s\" TAGS=\"%s\">%s</A>\n",
			html.EscapeString(b.URL), tags, html.EscapeString(b.Title))
		if tags != "" {
			fmt.Fprintf(bw, "    <DD>Tags: %s\n", tags)
		}
	}
	if _, err := bw.WriteString("</DL><p>"); err != nil {
		return err
	}

	return bw.Flush()
}

// OutputPath derives the default output file name for an input file
func OutputPath(input string) string {
	if ext := strings.ToLower(input); strings.HasSuffix(ext, ".html") || strings.HasSuffix(ext, ".htm") {
		dot := strings.LastIndex(input, ".")
		return input[:dot] + "_tagged" + input[dot:]
	}
	return input + "_tagged.html"
}
