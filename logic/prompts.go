package logic

// 提示词模板内容不属于核心逻辑，这里只保留最小可用的指令文本

const unifiedControllerPrompt = `You are the creative controller of an e-commerce image studio.
Audit the user's request and assets, then respond with a JSON object describing your proposal.`

const imageCompilerPrompt = `Compile the active visual DNA and the user's instruction into a single
image-generation prompt. Output JSON only.`

const productLockPrompt = `Analyze the %d attached product images and extract a visual fingerprint
(shape, materials, colors, markings) as a JSON object.`

const mainEngineInstruction = `Rewrite the user's request into production-ready image prompts.
Return a JSON object with fields nano_banana_en, seadream_cn and layout_logic.`

// 场景 -> 模式模板
var promptTemplates = map[string]string{
	"general":      "General Mode: balanced composition, clean studio background.",
	"product_shot": "Product Shot Mode: hero angle, soft key light, subject lock on the product.",
	"lifestyle":    "Lifestyle Mode: in-context usage scene with natural lighting.",
	"luxury":       "Luxury Mode: multi-screen visual strategy with brand-impact first screen.",
}

func modeTemplate(scenario string) string {
	if t, ok := promptTemplates[scenario]; ok {
		return t
	}
	return "General Mode"
}
