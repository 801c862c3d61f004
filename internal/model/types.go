package model

// Intent 用户意图枚举
type Intent string

const (
	IntentCreatePresentation Intent = "CREATE_PRESENTATION" // 创建新的幻灯片
	IntentModifySlide        Intent = "MODIFY_SLIDE"        // 修改某一页幻灯片
	IntentReconfigure        Intent = "RECONFIGURE"         // 调整主题/风格/页数配置
	IntentDeleteSlide        Intent = "DELETE_SLIDE"        // 删除某一页幻灯片
	IntentReorder            Intent = "REORDER"             // 调整幻灯片顺序
	IntentQueryStatus        Intent = "QUERY_STATUS"        // 查询当前进度
	IntentUnknown            Intent = "UNKNOWN"             // 无法识别，回复澄清信息
)

// ChangeOp 幻灯片编辑操作，封闭枚举，白名单之外的操作一律映射为ChangeOpNone
type ChangeOp string

const (
	ChangeOpReplaceTitle   ChangeOp = "REPLACE_TITLE"   // 替换标题
	ChangeOpReplaceBullets ChangeOp = "REPLACE_BULLETS" // 替换整个要点列表
	ChangeOpAppendBullet   ChangeOp = "APPEND_BULLET"   // 追加一条要点
	ChangeOpDeleteBullet   ChangeOp = "DELETE_BULLET"   // 删除一条要点
	ChangeOpReplaceImage   ChangeOp = "REPLACE_IMAGE"   // 替换图片引用
	ChangeOpNone           ChangeOp = "NONE"            // 无法映射到白名单，按空操作处理
)

// TodoAction 计划执行的工作项类型
type TodoAction string

const (
	ActionGenerateSlide TodoAction = "GENERATE_SLIDE" // 生成一页新幻灯片
	ActionInsertSlide   TodoAction = "INSERT_SLIDE"   // 在指定位置后插入一页
	ActionModifySlide   TodoAction = "MODIFY_SLIDE"   // 对已有幻灯片应用编辑
	ActionDeleteSlide   TodoAction = "DELETE_SLIDE"   // 删除一页
	ActionReorder       TodoAction = "REORDER"        // 重新排序
)

// Slide 一页幻灯片：ID分配后不变也不复用，Ordinal随排序变化
type Slide struct {
	ID      string `json:"id"`      // 稳定唯一标识
	Ordinal int    `json:"ordinal"` // 0起始的连续序号
	Title   string `json:"title"`   // 幻灯片标题
	HTML    string `json:"html"`    // 校验通过的完整HTML文档
}

// SlideConfig 生成参数，仅由Planner/Orchestrator在CREATE或RECONFIGURE时修改
type SlideConfig struct {
	Topic     string `json:"topic,omitempty"`      // 演示主题
	StyleHint string `json:"style_hint,omitempty"` // 风格提示
	NSlides   int    `json:"n_slides,omitempty"`   // 请求的幻灯片数量，1-40
}

// MaxSlides 单个deck允许的最大页数
const MaxSlides = 40

// SlideTheme 外观默认值，构造后不可变，所有幻灯片共享
type SlideTheme struct {
	LogoURL    string `json:"logo_url,omitempty" yaml:"logo_url"`       // 右下角logo引用
	FooterText string `json:"footer_text,omitempty" yaml:"footer_text"` // 页脚文字
}

// SlideChange 一次定向编辑请求
type SlideChange struct {
	Op   ChangeOp       `json:"op"`             // 白名单内的操作
	Args map[string]any `json:"args,omitempty"` // 操作相关参数，必填字段按操作校验
}

// Todo 一个待执行的工作项，由Planner按执行顺序产出，FIFO消费且不回溯
type Todo struct {
	Action   TodoAction   `json:"action"`
	Title    string       `json:"title,omitempty"`     // GENERATE/INSERT：幻灯片标题
	Outline  string       `json:"outline,omitempty"`   // GENERATE：内容提纲
	Bullets  []string     `json:"bullets,omitempty"`   // INSERT：要点列表
	After    int          `json:"after,omitempty"`     // INSERT：插入到该位置(1起始)之后，0表示最前
	TargetID string       `json:"target_id,omitempty"` // MODIFY/DELETE：目标幻灯片ID，目标不存在时为空
	Position int          `json:"position,omitempty"`  // MODIFY/DELETE：用户所说的页码(1起始)
	Change   *SlideChange `json:"change,omitempty"`    // MODIFY：要应用的编辑
	Order    []int        `json:"order,omitempty"`     // REORDER：新的位置排列(1起始)
}

// ChatMessage 会话消息，运行期间只追加不修改
type ChatMessage struct {
	Role     string            `json:"role"`               // user或assistant
	Content  string            `json:"content"`            // 文本内容
	Metadata map[string]string `json:"metadata,omitempty"` // title键用于标记工具调用痕迹
}

// 消息metadata中title键的取值
const (
	MetaTitleKey    = "title"
	MetaToolTrace   = "Using a tool"
	MetaToolResult  = "Tool result"
	MetaErrorRecord = "Error"
)

// UserIntent 意图识别结果：意图 + 按意图提取的实体
type UserIntent struct {
	Intent          Intent `json:"intent"`
	Topic           string `json:"topic,omitempty"`            // CREATE/RECONFIGURE
	StyleHint       string `json:"style_hint,omitempty"`       // CREATE/RECONFIGURE
	NSlides         int    `json:"n_slides,omitempty"`         // CREATE/RECONFIGURE
	TargetPosition  int    `json:"target_position,omitempty"`  // MODIFY/DELETE，1起始的页码
	EditInstruction string `json:"edit_instruction,omitempty"` // MODIFY：自由文本编辑指令
	Order           []int  `json:"order,omitempty"`            // REORDER
}

// ErrorKind 错误分类
type ErrorKind string

const (
	ErrKindValidation     ErrorKind = "validation"     // 生成/编辑结果未通过结构校验
	ErrKindClassification ErrorKind = "classification" // 意图识别失败，已降级UNKNOWN
	ErrKindTool           ErrorKind = "tool"           // 外部数据工具调用失败
	ErrKindInvariant      ErrorKind = "invariant"      // ID/序号不变量被破坏，视为致命缺陷
)

// ErrorRecord 错误日志条目
type ErrorRecord struct {
	Kind   ErrorKind `json:"kind"`
	Action string    `json:"action,omitempty"` // 出错的Todo动作
	Reason string    `json:"reason"`
}
