package slidehtml

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// The edit operations below are scoped structural transformations of an
// existing slide, not regenerations. Each parses the document, rewrites
// one element and renders the result; callers re-validate before
// committing. Operations whose target is absent or already satisfied
// return a descriptive error so that re-applying a change can never
// corrupt the document.

// ReplaceTitle 替换第一个h1的文本
func ReplaceTitle(doc, title string) (string, error) {
	root, err := parseDoc(doc)
	if err != nil {
		return "", err
	}
	h1 := findFirst(root, "h1")
	if h1 == nil {
		return "", fmt.Errorf("slide has no <h1> title")
	}
	removeChildren(h1)
	h1.AppendChild(textNode(title))
	return render(root), nil
}

// ReplaceBullets 用新列表替换第一个ul的全部要点
func ReplaceBullets(doc string, bullets []string) (string, error) {
	root, err := parseDoc(doc)
	if err != nil {
		return "", err
	}
	ul := findFirst(root, "ul")
	if ul == nil {
		return "", fmt.Errorf("slide has no bullet list")
	}
	removeChildren(ul)
	for _, b := range bullets {
		li := elementNode("li", atom.Li)
		li.AppendChild(textNode(b))
		ul.AppendChild(li)
	}
	return render(root), nil
}

// AppendBullet 在第一个ul末尾追加要点，重复追加会被拒绝
func AppendBullet(doc, bullet string) (string, error) {
	root, err := parseDoc(doc)
	if err != nil {
		return "", err
	}
	ul := findFirst(root, "ul")
	if ul == nil {
		return "", fmt.Errorf("slide has no bullet list")
	}
	for c := ul.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" && strings.TrimSpace(nodeText(c)) == strings.TrimSpace(bullet) {
			return "", fmt.Errorf("bullet %q is already present", bullet)
		}
	}
	li := elementNode("li", atom.Li)
	li.AppendChild(textNode(bullet))
	ul.AppendChild(li)
	return render(root), nil
}

// DeleteBullet 删除文本匹配的要点，目标不存在则拒绝
func DeleteBullet(doc, bullet string) (string, error) {
	root, err := parseDoc(doc)
	if err != nil {
		return "", err
	}
	ul := findFirst(root, "ul")
	if ul == nil {
		return "", fmt.Errorf("slide has no bullet list")
	}
	for c := ul.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" && strings.TrimSpace(nodeText(c)) == strings.TrimSpace(bullet) {
			ul.RemoveChild(c)
			return render(root), nil
		}
	}
	return "", fmt.Errorf("bullet %q not found", bullet)
}

// ReplaceImage 替换第一个img的src引用
func ReplaceImage(doc, src string) (string, error) {
	root, err := parseDoc(doc)
	if err != nil {
		return "", err
	}
	img := findFirst(root, "img")
	if img == nil {
		return "", fmt.Errorf("slide has no image element")
	}
	for i, a := range img.Attr {
		if strings.EqualFold(a.Key, "src") {
			img.Attr[i].Val = src
			return render(root), nil
		}
	}
	img.Attr = append(img.Attr, html.Attribute{Key: "src", Val: src})
	return render(root), nil
}

func parseDoc(doc string) (*html.Node, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("unparseable html: %w", err)
	}
	return root, nil
}

func textNode(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func elementNode(tag string, a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: a}
}

func removeChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}
