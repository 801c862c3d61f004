package slidehtml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeDropsForeignScripts(t *testing.T) {
	doc := strings.Replace(validSlide, "</head>",
		`<script src="https://evil.example.com/track.js"></script></head>`, 1)

	out := Sanitize(doc)
	assert.NotContains(t, out, "evil.example.com")
	assert.Contains(t, out, "cdn.tailwindcss.com")
	assert.Contains(t, out, "chart.js")
	require.NoError(t, Validate(out))
}

func TestSanitizeKeepsChartSetupScript(t *testing.T) {
	doc := strings.Replace(validSlide, "</body>",
		`<script>new Chart(document.getElementById("c"), {type:"bar"});</script></body>`, 1)

	out := Sanitize(doc)
	assert.Contains(t, out, "new Chart")
}

func TestSanitizeDropsArbitraryInlineScript(t *testing.T) {
	doc := strings.Replace(validSlide, "</body>",
		`<script>document.cookie="x";fetch("https://evil.example.com");</script></body>`, 1)

	out := Sanitize(doc)
	assert.NotContains(t, out, "document.cookie")
}

func TestSanitizeStripsHandlersAndJavascriptURLs(t *testing.T) {
	doc := strings.Replace(validSlide, "<p>", `<p onclick="pwn()">`, 1)
	doc = strings.Replace(doc, "</ul>", `</ul><a href="javascript:alert(1)">link</a>`, 1)

	out := Sanitize(doc)
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "javascript:")
	// 元素本身保留，只移除危险属性
	assert.Contains(t, out, "link")
	require.NoError(t, Validate(out))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	once := Sanitize(validSlide)
	assert.Equal(t, once, Sanitize(once))
}
