package provider

import "testing"

func TestResolveSize_TierSelection(t *testing.T) {
	tests := []struct {
		modelID  string
		ratio    string
		wantSize Size
		wantTier string
	}{
		{"nano_banana_2", "1:1", Size{1024, 1024}, "1K"},
		{"nano_banana_2", "16:9", Size{1280, 720}, "1K"},
		{"nano_banana_2k", "1:1", Size{2048, 2048}, "2K"},
		{"doubao_seedream", "9:16", Size{1512, 2688}, "2K"},
		{"nano_banana_4k", "1:1", Size{3072, 3072}, "4K"},
		{"nano_banana_4k", "4:3", Size{3840, 2880}, "4K"},
		{"NANO_BANANA_4K", "16:9", Size{3840, 2160}, "4K"},
	}
	for _, tt := range tests {
		size, tier := resolveSize(tt.modelID, tt.ratio)
		if size != tt.wantSize || tier != tt.wantTier {
			t.Errorf("resolveSize(%q, %q) = %v, %q; want %v, %q",
				tt.modelID, tt.ratio, size, tier, tt.wantSize, tt.wantTier)
		}
	}
}

func TestResolveSize_UnknownRatioFallsBackToSquare(t *testing.T) {
	size, tier := resolveSize("nano_banana_2k", "21:9")
	if size != (Size{2048, 2048}) || tier != "2K" {
		t.Errorf("resolveSize fallback = %v, %q; want 2048x2048, 2K", size, tier)
	}
}

func TestOpenAISize(t *testing.T) {
	if got := openAISize("16:9"); got != "1280x720" {
		t.Errorf("openAISize(16:9) = %q, want 1280x720", got)
	}
	if got := openAISize("weird"); got != "1024x1024" {
		t.Errorf("openAISize fallback = %q, want 1024x1024", got)
	}
}

func TestIsStandardRatio(t *testing.T) {
	for _, r := range []string{"1:1", "4:3", "3:4", "16:9", "9:16"} {
		if !isStandardRatio(r) {
			t.Errorf("isStandardRatio(%q) = false", r)
		}
	}
	if isStandardRatio("2:1") {
		t.Error("isStandardRatio(2:1) = true, want false")
	}
}
