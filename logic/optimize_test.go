package logic

import (
	"strings"
	"testing"
)

func TestSelectFinalPrompt_DualCore(t *testing.T) {
	raw := `{"nano_banana_en":"an english prompt","seadream_cn":"一段中文提示词","layout_logic":"rule of thirds"}`

	sel := selectFinalPrompt(raw, "nano_banana_2")
	if sel.FinalPrompt != "an english prompt" {
		t.Errorf("FinalPrompt = %q, want the english variant for a banana model", sel.FinalPrompt)
	}
	if sel.LayoutLogic != "rule of thirds" {
		t.Errorf("LayoutLogic = %q", sel.LayoutLogic)
	}

	sel = selectFinalPrompt(raw, "doubao_seedream_ark")
	if sel.FinalPrompt != "一段中文提示词" {
		t.Errorf("FinalPrompt = %q, want the chinese variant for a seadream model", sel.FinalPrompt)
	}
}

func TestSelectFinalPrompt_MissingVariantFallsThrough(t *testing.T) {
	raw := `{"nano_banana_en":"only english"}`
	sel := selectFinalPrompt(raw, "doubao_seedream_ark")
	if sel.FinalPrompt != "only english" {
		t.Errorf("FinalPrompt = %q, want the other variant when the preferred one is missing", sel.FinalPrompt)
	}
}

func TestSelectFinalPrompt_LuxuryStrategyTakesFirstScreen(t *testing.T) {
	raw := `{
		"luxury_visual_strategy": {
			"screens": [
				{"screen_name_zh": "首屏", "positive_prompt": "screen one prompt"},
				{"screen_name_zh": "次屏", "positive_prompt": "screen two prompt"}
			],
			"visual_grammar_handbook": {"composition_rules": "centered"}
		}
	}`
	sel := selectFinalPrompt(raw, "nano_banana_2")
	if sel.FinalPrompt != "screen one prompt" {
		t.Errorf("FinalPrompt = %q, want the first screen", sel.FinalPrompt)
	}
	if !strings.Contains(sel.LayoutLogic, "首屏") || !strings.Contains(sel.LayoutLogic, "centered") {
		t.Errorf("LayoutLogic = %q, want screen name and composition rules", sel.LayoutLogic)
	}
}

func TestSelectFinalPrompt_ProposalRefs(t *testing.T) {
	raw := `{"nano_banana_en":"p","thinking_level":"high","proposal":{"identity_ref":2,"logic_ref":0}}`
	sel := selectFinalPrompt(raw, "nano_banana_2")
	if sel.ThinkingLevel != "high" {
		t.Errorf("ThinkingLevel = %q, want high", sel.ThinkingLevel)
	}
	if sel.IdentityRef == nil || *sel.IdentityRef != 2 {
		t.Errorf("IdentityRef = %v, want 2", sel.IdentityRef)
	}
	if sel.LogicRef == nil || *sel.LogicRef != 0 {
		t.Errorf("LogicRef = %v, want 0", sel.LogicRef)
	}
}

func TestSelectFinalPrompt_PlainTextPassesThrough(t *testing.T) {
	raw := "just a plain optimized sentence"
	sel := selectFinalPrompt(raw, "nano_banana_2")
	if sel.FinalPrompt != raw {
		t.Errorf("FinalPrompt = %q, non-JSON input must be used verbatim", sel.FinalPrompt)
	}
}

func TestExtractJSONBlock(t *testing.T) {
	in := "Here you go:\n```json\n{\"a\": 1}\n```\nEnjoy."
	got, ok := extractJSONBlock(in)
	if !ok || got != `{"a": 1}` {
		t.Errorf("extractJSONBlock = %q, %v", got, ok)
	}

	if _, ok := extractJSONBlock("no fence here"); ok {
		t.Error("extractJSONBlock should fail without a fence")
	}
	if _, ok := extractJSONBlock("```json\nnot json\n```"); ok {
		t.Error("extractJSONBlock should reject an invalid fenced block")
	}
}
