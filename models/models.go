package models

// GenerationRequest 是提供商适配层的统一输入
type GenerationRequest struct {
	Prompt  string
	Ratio   string
	ModelID string
	Images  [][]byte
	Mask    []byte

	// 调用方覆盖的凭证；为空或占位符时回退到后端配置
	APIKey string
	APIURL string

	// 多轮指令续接
	ThoughtSignature string
	ThinkingLevel    string

	// 双轨参考：哪张上传图锚定主体身份/构图逻辑
	IdentityRef *int
	LogicRef    *int
}

// GenerationResult 是归一化后的输出：图像定位符（远程URL或内联 data URI）
// 加上可回传给下一轮的续接签名
type GenerationResult struct {
	URL              string
	ThoughtSignature string
}
