package slidehtml

import (
	"strings"

	"golang.org/x/net/html"
)

// Sanitize strips everything outside the script allowlist from the
// document: foreign script tags, inline scripts that are not Tailwind or
// Chart.js setup, event handler attributes and javascript: URLs. It runs
// unconditionally on every model response, even ones that already passed
// Validate.
func Sanitize(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}

	var drop []*html.Node
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if n.Data == "script" {
			if src := attrValue(n, "src"); src != "" {
				if !isAllowedScriptSrc(src) {
					drop = append(drop, n)
				}
			} else if !isAllowedInlineScript(n) {
				drop = append(drop, n)
			}
			return
		}
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	})
	for _, n := range drop {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return render(root)
}

func isAllowedScriptSrc(src string) bool {
	for _, needle := range allowedScriptSrc {
		if strings.Contains(src, needle) {
			return true
		}
	}
	return false
}

// isAllowedInlineScript 只放行Tailwind配置或Chart.js初始化脚本
func isAllowedInlineScript(n *html.Node) bool {
	text := strings.ToLower(strings.TrimSpace(nodeText(n)))
	if text == "" {
		return false
	}
	for _, kw := range allowedInlineKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}
