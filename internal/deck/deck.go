// Package deck holds the ordered slide collection for one session. It is
// pure data plus invariant enforcement: slide ids are unique and never
// reused, ordinals always form a contiguous 0..k-1 sequence. The deck is
// not safe for concurrent use; it is owned and mutated exclusively inside
// the orchestrator's critical section.
package deck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"deckagent/internal/model"
)

// ErrInvariantViolation marks an id/ordinal collision. This must never
// happen; callers treat it as a fatal defect, not a recoverable error.
var ErrInvariantViolation = errors.New("deck invariant violation")

type Deck struct {
	theme         model.SlideTheme
	config        model.SlideConfig
	configVersion int
	slides        []model.Slide
}

func New(theme model.SlideTheme) *Deck {
	return &Deck{theme: theme}
}

func (d *Deck) Theme() model.SlideTheme { return d.theme }

func (d *Deck) Config() model.SlideConfig { return d.config }

func (d *Deck) ConfigVersion() int { return d.configVersion }

// SetConfig 接受一次配置变更并使config_version恰好加一
func (d *Deck) SetConfig(cfg model.SlideConfig) {
	d.config = cfg
	d.configVersion++
}

func (d *Deck) Len() int { return len(d.slides) }

// Slides 返回当前幻灯片的副本，调用方不能借此修改deck
func (d *Deck) Slides() []model.Slide {
	out := make([]model.Slide, len(d.slides))
	copy(out, d.slides)
	return out
}

func (d *Deck) SlideByID(id string) (model.Slide, bool) {
	for _, s := range d.slides {
		if s.ID == id {
			return s, true
		}
	}
	return model.Slide{}, false
}

// IDAt 把1起始的用户可见页码换成幻灯片ID
func (d *Deck) IDAt(position int) (string, bool) {
	if position < 1 || position > len(d.slides) {
		return "", false
	}
	return d.slides[position-1].ID, true
}

// Append 在末尾追加一页，分配新ID
func (d *Deck) Append(title, html string) (model.Slide, error) {
	return d.insertAt(len(d.slides), title, html)
}

// InsertAfter 在1起始的位置之后插入一页，after为0时插在最前
func (d *Deck) InsertAfter(after int, title, html string) (model.Slide, error) {
	if after < 0 || after > len(d.slides) {
		return model.Slide{}, fmt.Errorf("insert position %d out of range (deck has %d slides)", after, len(d.slides))
	}
	return d.insertAt(after, title, html)
}

func (d *Deck) insertAt(idx int, title, html string) (model.Slide, error) {
	if len(d.slides) >= model.MaxSlides {
		return model.Slide{}, fmt.Errorf("deck is full (%d slides)", model.MaxSlides)
	}
	s := model.Slide{ID: uuid.NewString(), Title: title, HTML: html}
	d.slides = append(d.slides, model.Slide{})
	copy(d.slides[idx+1:], d.slides[idx:])
	d.slides[idx] = s
	d.renumber()
	if err := d.checkInvariants(); err != nil {
		return model.Slide{}, err
	}
	return d.slides[idx], nil
}

// ReplaceHTML 原地替换一页的内容
func (d *Deck) ReplaceHTML(id, title, html string) error {
	for i := range d.slides {
		if d.slides[i].ID == id {
			d.slides[i].HTML = html
			if title != "" {
				d.slides[i].Title = title
			}
			return nil
		}
	}
	return fmt.Errorf("slide %s not found", id)
}

// Delete 删除一页，ID不复用，其余序号重排保持连续
func (d *Deck) Delete(id string) error {
	for i := range d.slides {
		if d.slides[i].ID == id {
			d.slides = append(d.slides[:i], d.slides[i+1:]...)
			d.renumber()
			return d.checkInvariants()
		}
	}
	return fmt.Errorf("slide %s not found", id)
}

// Reorder 按order给出的1起始页码排列全部幻灯片，order必须是1..n的一个排列
func (d *Deck) Reorder(order []int) error {
	if len(order) != len(d.slides) {
		return fmt.Errorf("order lists %d positions, deck has %d slides", len(order), len(d.slides))
	}
	seen := make(map[int]bool, len(order))
	reordered := make([]model.Slide, 0, len(order))
	for _, pos := range order {
		if pos < 1 || pos > len(d.slides) {
			return fmt.Errorf("position %d out of range", pos)
		}
		if seen[pos] {
			return fmt.Errorf("position %d listed twice", pos)
		}
		seen[pos] = true
		reordered = append(reordered, d.slides[pos-1])
	}
	d.slides = reordered
	d.renumber()
	return d.checkInvariants()
}

// Clear 清空幻灯片但保留配置与版本号，供重新生成整副Deck时使用
func (d *Deck) Clear() {
	d.slides = nil
}

// Reset 清空全部幻灯片和配置，config_version归零
func (d *Deck) Reset() {
	d.slides = nil
	d.config = model.SlideConfig{}
	d.configVersion = 0
}

func (d *Deck) renumber() {
	for i := range d.slides {
		d.slides[i].Ordinal = i
	}
}

func (d *Deck) checkInvariants() error {
	ids := make(map[string]bool, len(d.slides))
	for i, s := range d.slides {
		if s.ID == "" || ids[s.ID] {
			return fmt.Errorf("%w: duplicate or empty slide id %q", ErrInvariantViolation, s.ID)
		}
		ids[s.ID] = true
		if s.Ordinal != i {
			return fmt.Errorf("%w: ordinal %d at index %d", ErrInvariantViolation, s.Ordinal, i)
		}
	}
	return nil
}

// ExportHTML 把已提交的幻灯片文档按顺序拼接成可渲染产物
func (d *Deck) ExportHTML() string {
	docs := make([]string, 0, len(d.slides))
	for _, s := range d.slides {
		docs = append(docs, s.HTML)
	}
	return strings.Join(docs, "\n<!-- slide -->\n")
}

// Save 导出并写入文件
func (d *Deck) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(d.ExportHTML()), 0o644)
}
