package slidehtml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSlide = `<html><head>
<script src="https://cdn.tailwindcss.com"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
</head>
<body style="width:1280px;height:720px;overflow:hidden">
<div class="slide-container" style="max-width:1280px;max-height:720px">
<h1 style="color:#102025">Quarterly Review</h1>
<p>Revenue grew steadily across all regions.</p>
<ul><li>First point</li><li>Second point</li></ul>
<img src="https://example.com/logo.png" alt="logo"/>
</div>
</body></html>`

func TestValidateAcceptsCompliantSlide(t *testing.T) {
	require.NoError(t, Validate(validSlide))
}

func TestValidateRejectsBadDocuments(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "no title",
			mutate:  func(d string) string { return strings.Replace(d, "<h1 style=\"color:#102025\">Quarterly Review</h1>", "", 1) },
			wantErr: "exactly one <h1>",
		},
		{
			name:    "two titles",
			mutate:  func(d string) string { return strings.Replace(d, "</div>", "<h1>Extra</h1></div>", 1) },
			wantErr: "exactly one <h1>",
		},
		{
			name:    "missing tailwind",
			mutate:  func(d string) string { return strings.Replace(d, "https://cdn.tailwindcss.com", "https://example.com/styles.js", 1) },
			wantErr: "Tailwind",
		},
		{
			name:    "missing chart.js",
			mutate:  func(d string) string { return strings.Replace(d, "https://cdn.jsdelivr.net/npm/chart.js", "https://example.com/other.js", 1) },
			wantErr: "Chart.js",
		},
		{
			name:    "wrong body width",
			mutate:  func(d string) string { return strings.Replace(d, "width:1280px", "width:1024px", 1) },
			wantErr: "width: 1280px",
		},
		{
			name:    "body overflow visible",
			mutate:  func(d string) string { return strings.Replace(d, "overflow:hidden", "overflow:visible", 1) },
			wantErr: "overflow: hidden",
		},
		{
			name: "max-width does not satisfy width",
			mutate: func(d string) string {
				return strings.Replace(d, `style="width:1280px;height:720px;overflow:hidden"`,
					`style="max-width:1280px;height:720px;overflow:hidden"`, 1)
			},
			wantErr: "width: 1280px",
		},
		{
			name:    "container missing max-height",
			mutate:  func(d string) string { return strings.Replace(d, "max-height:720px", "height:720px", 1) },
			wantErr: "max-height",
		},
		{
			name:    "event handler attribute",
			mutate:  func(d string) string { return strings.Replace(d, "<p>", `<p onclick="steal()">`, 1) },
			wantErr: "event handler",
		},
		{
			name: "javascript url",
			mutate: func(d string) string {
				return strings.Replace(d, "</ul>", `</ul><a href="javascript:alert(1)">x</a>`, 1)
			},
			wantErr: "javascript:",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.mutate(validSlide))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateErrorNamesTheProblem(t *testing.T) {
	// 校验错误会原样回馈给模型，必须是可读的英文描述
	err := Validate(strings.Replace(validSlide, "width:1280px", "width:640px", 1))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "%!")
}
