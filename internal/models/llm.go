package models

// SpeakerRole 表示一条内容的发言角色。
type SpeakerRole string

const (
	SpeakerUser  SpeakerRole = "user"  // 用户发言
	SpeakerModel SpeakerRole = "model" // 模型发言
)

// Part 是内容的最小单元，目前只承载文本。
type Part struct {
	Text string
}

// Content 代表一轮对话中的一条内容。
type Content struct {
	Parts []*Part
	Role  SpeakerRole
}

// GenerateContentRequest 是发送给 LLM 的生成请求。
// Content 按时间顺序排列，最后一条是当前的提问。
type GenerateContentRequest struct {
	Content []Content
}

// GenerateContentResponse 是 LLM 生成的响应。
type GenerateContentResponse struct {
	Content      []Content
	ResponseID   string
	ModelVersion string
}

// Text 返回响应中第一条内容的拼接文本。
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	var out string
	for _, p := range r.Content[0].Parts {
		if p != nil {
			out += p.Text
		}
	}
	return out
}
