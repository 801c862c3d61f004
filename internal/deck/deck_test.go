package deck

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckagent/internal/model"
)

func newTestDeck(t *testing.T, n int) *Deck {
	t.Helper()
	d := New(model.SlideTheme{FooterText: "ACME"})
	for i := 0; i < n; i++ {
		_, err := d.Append(fmt.Sprintf("Slide %d", i+1), fmt.Sprintf("<html>%d</html>", i+1))
		require.NoError(t, err)
	}
	return d
}

func TestAppendAssignsContiguousOrdinals(t *testing.T) {
	d := newTestDeck(t, 3)
	slides := d.Slides()
	require.Len(t, slides, 3)
	for i, s := range slides {
		assert.Equal(t, i, s.Ordinal)
		assert.NotEmpty(t, s.ID)
	}
	assert.NotEqual(t, slides[0].ID, slides[1].ID)
}

func TestInsertAfterRenumbers(t *testing.T) {
	d := newTestDeck(t, 3)
	s, err := d.InsertAfter(1, "Inserted", "<html>x</html>")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Ordinal)

	slides := d.Slides()
	require.Len(t, slides, 4)
	assert.Equal(t, "Slide 1", slides[0].Title)
	assert.Equal(t, "Inserted", slides[1].Title)
	assert.Equal(t, "Slide 2", slides[2].Title)
	for i, s := range slides {
		assert.Equal(t, i, s.Ordinal)
	}
}

func TestInsertAfterZeroPrepends(t *testing.T) {
	d := newTestDeck(t, 2)
	s, err := d.InsertAfter(0, "Cover", "<html>c</html>")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Ordinal)
	assert.Equal(t, "Cover", d.Slides()[0].Title)
}

func TestInsertAfterOutOfRange(t *testing.T) {
	d := newTestDeck(t, 2)
	_, err := d.InsertAfter(5, "x", "<html/>")
	require.Error(t, err)
}

func TestDeleteDoesNotReuseIDs(t *testing.T) {
	d := newTestDeck(t, 3)
	victim := d.Slides()[1]
	require.NoError(t, d.Delete(victim.ID))

	slides := d.Slides()
	require.Len(t, slides, 2)
	for i, s := range slides {
		assert.Equal(t, i, s.Ordinal)
		assert.NotEqual(t, victim.ID, s.ID)
	}

	// 后续新增拿到的是全新ID
	added, err := d.Append("New", "<html/>")
	require.NoError(t, err)
	assert.NotEqual(t, victim.ID, added.ID)
}

func TestDeleteUnknownID(t *testing.T) {
	d := newTestDeck(t, 1)
	require.Error(t, d.Delete("no-such-id"))
	assert.Equal(t, 1, d.Len())
}

func TestReorderPermutation(t *testing.T) {
	d := newTestDeck(t, 3)
	require.NoError(t, d.Reorder([]int{3, 1, 2}))

	slides := d.Slides()
	assert.Equal(t, "Slide 3", slides[0].Title)
	assert.Equal(t, "Slide 1", slides[1].Title)
	assert.Equal(t, "Slide 2", slides[2].Title)
	for i, s := range slides {
		assert.Equal(t, i, s.Ordinal)
	}
}

func TestReorderRejectsBadInput(t *testing.T) {
	d := newTestDeck(t, 3)
	before := d.Slides()

	assert.Error(t, d.Reorder([]int{1, 2}))       // 长度不符
	assert.Error(t, d.Reorder([]int{1, 2, 4}))    // 越界
	assert.Error(t, d.Reorder([]int{1, 1, 2}))    // 重复
	assert.Equal(t, before, d.Slides())           // 失败不落盘
}

func TestSetConfigBumpsVersionExactlyOnce(t *testing.T) {
	d := New(model.SlideTheme{})
	assert.Equal(t, 0, d.ConfigVersion())
	d.SetConfig(model.SlideConfig{Topic: "go", NSlides: 3})
	assert.Equal(t, 1, d.ConfigVersion())
	d.SetConfig(model.SlideConfig{Topic: "go", NSlides: 5})
	assert.Equal(t, 2, d.ConfigVersion())
}

func TestClearKeepsConfigVersion(t *testing.T) {
	d := newTestDeck(t, 2)
	d.SetConfig(model.SlideConfig{Topic: "x", NSlides: 2})
	d.Clear()
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 1, d.ConfigVersion())
	assert.Equal(t, "x", d.Config().Topic)
}

func TestResetZeroesEverything(t *testing.T) {
	d := newTestDeck(t, 2)
	d.SetConfig(model.SlideConfig{Topic: "x"})
	d.Reset()
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0, d.ConfigVersion())
	assert.Equal(t, model.SlideConfig{}, d.Config())
}

func TestMaxSlidesCap(t *testing.T) {
	d := New(model.SlideTheme{})
	for i := 0; i < model.MaxSlides; i++ {
		_, err := d.Append("s", "<html/>")
		require.NoError(t, err)
	}
	_, err := d.Append("overflow", "<html/>")
	require.Error(t, err)
	assert.Equal(t, model.MaxSlides, d.Len())
}

func TestIDAt(t *testing.T) {
	d := newTestDeck(t, 2)
	id, ok := d.IDAt(2)
	require.True(t, ok)
	assert.Equal(t, d.Slides()[1].ID, id)

	_, ok = d.IDAt(0)
	assert.False(t, ok)
	_, ok = d.IDAt(3)
	assert.False(t, ok)
}

func TestExportAndSave(t *testing.T) {
	d := newTestDeck(t, 2)
	out := d.ExportHTML()
	assert.Contains(t, out, "<!-- slide -->")
	assert.Contains(t, out, "<html>1</html>")

	path := filepath.Join(t.TempDir(), "out", "deck.html")
	require.NoError(t, d.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}
