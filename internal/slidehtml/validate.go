// Package slidehtml checks, sanitizes and structurally edits single-slide
// HTML documents. A slide is a complete self-contained document on a fixed
// 1280x720 canvas, with Tailwind CSS and Chart.js as the only allowed
// script sources.
package slidehtml

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

const (
	CanvasWidth  = 1280
	CanvasHeight = 720
)

// 允许的外部脚本来源和内联脚本关键字
var allowedScriptSrc = []string{"tailwindcss.com", "chart.js"}

var allowedInlineKeywords = []string{
	"new chart",
	"chart.register",
	"chart.defaults",
	"chart.data",
	"chart.options",
	"chart.update",
	"tailwind.config",
}

// Validate reports the first structural violation of the slide contract,
// or nil if the document is acceptable. The returned error text is fed
// back to the model as corrective feedback, so it stays human-readable.
func Validate(doc string) error {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return fmt.Errorf("unparseable html: %w", err)
	}

	for _, tag := range []string{"html", "head", "body"} {
		if findFirst(root, tag) == nil {
			return fmt.Errorf("document is missing a <%s> element", tag)
		}
	}

	if n := countElements(root, "h1"); n != 1 {
		return fmt.Errorf("document must contain exactly one <h1>, found %d", n)
	}

	if countElements(root, "li") == 0 && countElements(root, "p") == 0 && countElements(root, "div") == 0 {
		return fmt.Errorf("document has no content elements (li, p or div)")
	}

	if !hasScriptSrc(root, "tailwindcss.com") {
		return fmt.Errorf("missing Tailwind CSS CDN script tag")
	}
	if !hasScriptSrc(root, "chart.js") {
		return fmt.Errorf("missing Chart.js CDN script tag")
	}

	body := findFirst(root, "body")
	props := styleProps(attrValue(body, "style"))
	if props["width"] != "1280px" {
		return fmt.Errorf("body style must fix width: 1280px")
	}
	if props["height"] != "720px" {
		return fmt.Errorf("body style must fix height: 720px")
	}
	if props["overflow"] != "hidden" {
		return fmt.Errorf("body style must set overflow: hidden")
	}

	// 主容器若存在则必须限定在画布内
	if c := findMainContainer(root); c != nil {
		cp := styleProps(attrValue(c, "style"))
		if cp["max-width"] != "1280px" {
			return fmt.Errorf("main container must set max-width: 1280px")
		}
		if cp["max-height"] != "720px" {
			return fmt.Errorf("main container must set max-height: 720px")
		}
	}

	var unsafe error
	walk(root, func(n *html.Node) {
		if unsafe != nil || n.Type != html.ElementNode {
			return
		}
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			if strings.HasPrefix(key, "on") {
				unsafe = fmt.Errorf("event handler attribute %q is not allowed", a.Key)
				return
			}
			if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
				unsafe = fmt.Errorf("javascript: URL in %q is not allowed", a.Key)
				return
			}
		}
	})
	return unsafe
}

// findMainContainer 查找class包含container/main/slide的div
func findMainContainer(root *html.Node) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode || n.Data != "div" {
			return
		}
		class := strings.ToLower(attrValue(n, "class"))
		if strings.Contains(class, "container") || strings.Contains(class, "main") || strings.Contains(class, "slide") {
			found = n
		}
	})
	return found
}

func hasScriptSrc(root *html.Node, needle string) bool {
	ok := false
	walk(root, func(n *html.Node) {
		if ok || n.Type != html.ElementNode || n.Data != "script" {
			return
		}
		if strings.Contains(attrValue(n, "src"), needle) {
			ok = true
		}
	})
	return ok
}

// styleProps 把内联style拆成属性表
func styleProps(style string) map[string]string {
	props := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		k, v, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		props[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	return props
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findFirst(n *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) {
		if found == nil && c.Type == html.ElementNode && c.Data == tag {
			found = c
		}
	})
	return found
}

func countElements(n *html.Node, tag string) int {
	count := 0
	walk(n, func(c *html.Node) {
		if c.Type == html.ElementNode && c.Data == tag {
			count++
		}
	})
	return count
}

func attrValue(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func render(root *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, root); err != nil {
		return ""
	}
	return b.String()
}
