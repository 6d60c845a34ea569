package extract

import (
    "bytes"
    "strings"
    "unicode"

    "golang.org/x/net/html"
)

// Document is a restaurant page reduced to its title and flattened text.
type Document struct {
    Title string
    Text  string
}

// Flatten reduces an HTML page to a single line of text with all whitespace
// runs collapsed to one space. It prefers <main> or <article> over <body>
// and drops scripts, styles, navigation, footers and cookie banners. Block
// elements are separated by a space so neighbouring words never merge.
func Flatten(input []byte) Document {
    node, err := html.Parse(bytes.NewReader(input))
    if err != nil || node == nil {
        return Document{}
    }

    title := collapseSpaces(findTitle(node))
    content := findFirst(node, "main")
    if content == nil {
        content = findFirst(node, "article")
    }
    if content == nil {
        content = findFirst(node, "body")
    }
    var b strings.Builder
    if content != nil {
        collectText(&b, content)
    }
    return Document{Title: title, Text: collapseSpaces(b.String())}
}

func findTitle(n *html.Node) string {
    head := findFirst(n, "head")
    if head == nil {
        return ""
    }
    t := findFirst(head, "title")
    if t == nil || t.FirstChild == nil {
        return ""
    }
    return t.FirstChild.Data
}

func findFirst(n *html.Node, tag string) *html.Node {
    if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
        return n
    }
    for c := n.FirstChild; c != nil; c = c.NextSibling {
        if res := findFirst(c, tag); res != nil {
            return res
        }
    }
    return nil
}

func collectText(b *strings.Builder, n *html.Node) {
    switch n.Type {
    case html.ElementNode:
        if isBoilerplateContainer(n) {
            return
        }
        switch strings.ToLower(n.Data) {
        case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "svg", "form":
            return
        }
        if isBlock(n.Data) {
            b.WriteByte(' ')
        }
    case html.TextNode:
        b.WriteString(n.Data)
    }

    for c := n.FirstChild; c != nil; c = c.NextSibling {
        collectText(b, c)
    }

    if n.Type == html.ElementNode && isBlock(n.Data) {
        b.WriteByte(' ')
    }
}

func isBlock(tag string) bool {
    switch strings.ToLower(tag) {
    case "p", "div", "section", "li", "ul", "ol", "br", "hr", "tr", "td", "th", "table",
        "h1", "h2", "h3", "h4", "h5", "h6", "header", "pre", "blockquote", "dd", "dt":
        return true
    }
    return false
}

// isBoilerplateContainer reports whether the element looks like a cookie or
// consent banner.
func isBoilerplateContainer(n *html.Node) bool {
    if n == nil || n.Type != html.ElementNode {
        return false
    }
    for _, attr := range n.Attr {
        key := strings.ToLower(attr.Key)
        if key != "id" && key != "class" && !strings.HasPrefix(key, "data-") && key != "aria-label" && key != "role" {
            continue
        }
        if containsAny(strings.ToLower(attr.Val), []string{"cookie", "consent", "gdpr"}) {
            return true
        }
    }
    return false
}

func containsAny(s string, needles []string) bool {
    for _, n := range needles {
        if strings.Contains(s, n) {
            return true
        }
    }
    return false
}

// collapseSpaces trims s and folds every whitespace run, including
// non-breaking spaces, into a single ASCII space.
func collapseSpaces(s string) string {
    var b strings.Builder
    b.Grow(len(s))
    pending := false
    for _, r := range s {
        if unicode.IsSpace(r) {
            pending = b.Len() > 0
            continue
        }
        if pending {
            b.WriteByte(' ')
            pending = false
        }
        b.WriteRune(r)
    }
    return b.String()
}
