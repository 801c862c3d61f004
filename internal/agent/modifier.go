package agent

import (
	"fmt"

	"deckagent/internal/model"
	"deckagent/internal/slidehtml"
)

// applyChange 对单页执行一次编辑操作。解析→定点修改→重新校验，
// 任何一步失败都不落盘，原页面保持不变。
func (a *Agent) applyChange(slide model.Slide, change model.SlideChange) error {
	var (
		doc      string
		newTitle = slide.Title
		err      error
	)

	switch change.Op {
	case model.ChangeOpReplaceTitle:
		title := stringArg(change.Args, "title")
		if title == "" {
			return fmt.Errorf("replace-title requires a non-empty title")
		}
		doc, err = slidehtml.ReplaceTitle(slide.HTML, title)
		newTitle = title
	case model.ChangeOpReplaceBullets:
		bullets := stringSliceArg(change.Args, "bullets")
		if len(bullets) == 0 {
			return fmt.Errorf("replace-bullets requires at least one bullet")
		}
		doc, err = slidehtml.ReplaceBullets(slide.HTML, bullets)
	case model.ChangeOpAppendBullet:
		bullet := stringArg(change.Args, "bullet")
		if bullet == "" {
			return fmt.Errorf("append-bullet requires bullet text")
		}
		doc, err = slidehtml.AppendBullet(slide.HTML, bullet)
	case model.ChangeOpDeleteBullet:
		bullet := stringArg(change.Args, "bullet")
		if bullet == "" {
			return fmt.Errorf("delete-bullet requires bullet text")
		}
		doc, err = slidehtml.DeleteBullet(slide.HTML, bullet)
	case model.ChangeOpReplaceImage:
		src := stringArg(change.Args, "src")
		if src == "" {
			return fmt.Errorf("replace-image requires a src")
		}
		doc, err = slidehtml.ReplaceImage(slide.HTML, src)
	default:
		return fmt.Errorf("unsupported edit operation %q", change.Op)
	}
	if err != nil {
		return err
	}

	// 编辑结果必须仍满足整页约束
	if verr := slidehtml.Validate(doc); verr != nil {
		return fmt.Errorf("edit result failed validation: %w", verr)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deck.ReplaceHTML(slide.ID, newTitle, doc)
}
