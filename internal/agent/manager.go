package agent

import (
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"

	"deckagent/internal/model"
)

// Manager 维护session_id到Agent的映射，每个会话各自独立的Deck与对话记录
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Agent

	chatModel einomodel.BaseChatModel
	tableTool invokableTool
	docTool   invokableTool
	theme     model.SlideTheme
}

func NewManager(cm einomodel.BaseChatModel, tableTool, docTool invokableTool, theme model.SlideTheme) *Manager {
	return &Manager{
		sessions:  make(map[string]*Agent),
		chatModel: cm,
		tableTool: tableTool,
		docTool:   docTool,
		theme:     theme,
	}
}

// Get 返回会话对应的Agent，不存在时创建
func (m *Manager) Get(sessionID string) *Agent {
	m.mu.RLock()
	a, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return a
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.sessions[sessionID]; ok {
		return a
	}
	a = New(m.chatModel, m.tableTool, m.docTool, m.theme)
	m.sessions[sessionID] = a
	return a
}

// Lookup 只查找不创建，用于状态查询接口
func (m *Manager) Lookup(sessionID string) (*Agent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.sessions[sessionID]
	return a, ok
}
