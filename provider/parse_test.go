package provider

import "testing"

func TestParseGenerationResponse_ProbeOrder(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantKind    resultKind
		wantLocator string
	}{
		{
			name:        "output list wins over data",
			body:        `{"output":["https://cdn/a.png"],"data":[{"url":"https://cdn/b.png"}]}`,
			wantKind:    KindURL,
			wantLocator: "https://cdn/a.png",
		},
		{
			name:        "output string",
			body:        `{"output":"https://cdn/c.png"}`,
			wantKind:    KindURL,
			wantLocator: "https://cdn/c.png",
		},
		{
			name:        "data url",
			body:        `{"data":[{"url":"https://cdn/d.png"}]}`,
			wantKind:    KindURL,
			wantLocator: "https://cdn/d.png",
		},
		{
			name:        "data b64_json",
			body:        `{"data":[{"b64_json":"aGVsbG8="}]}`,
			wantKind:    KindBase64,
			wantLocator: "aGVsbG8=",
		},
		{
			name:        "image_url field",
			body:        `{"image_url":"https://cdn/e.png"}`,
			wantKind:    KindURL,
			wantLocator: "https://cdn/e.png",
		},
		{
			name:        "img_url last resort",
			body:        `{"img_url":"https://cdn/f.png"}`,
			wantKind:    KindURL,
			wantLocator: "https://cdn/f.png",
		},
		{
			name:        "data uri counts as url",
			body:        `{"url":"data:image/png;base64,aGk="}`,
			wantKind:    KindURL,
			wantLocator: "data:image/png;base64,aGk=",
		},
		{
			name:        "bare list of strings",
			body:        `["https://cdn/g.png"]`,
			wantKind:    KindURL,
			wantLocator: "https://cdn/g.png",
		},
		{
			name:        "empty output list yields empty",
			body:        `{"output":[]}`,
			wantKind:    KindEmpty,
			wantLocator: "",
		},
		{
			name:        "no image field yields empty",
			body:        `{"status":"queued"}`,
			wantKind:    KindEmpty,
			wantLocator: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGenerationResponse([]byte(tt.body))
			if err != nil {
				t.Fatalf("parseGenerationResponse() error: %v", err)
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Locator != tt.wantLocator {
				t.Errorf("Locator = %q, want %q", got.Locator, tt.wantLocator)
			}
		})
	}
}

func TestParseGenerationResponse_ThoughtSignature(t *testing.T) {
	got, err := parseGenerationResponse([]byte(`{"thought_signature":"sig-1","data":[{"url":"https://cdn/x.png"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if got.ThoughtSignature != "sig-1" {
		t.Errorf("ThoughtSignature = %q, want sig-1", got.ThoughtSignature)
	}

	// 签名也可能藏在 data[0] 里
	got, err = parseGenerationResponse([]byte(`{"data":[{"url":"https://cdn/y.png","thought_signature":"sig-2"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if got.ThoughtSignature != "sig-2" {
		t.Errorf("nested ThoughtSignature = %q, want sig-2", got.ThoughtSignature)
	}
}

func TestParseGenerationResponse_InvalidJSON(t *testing.T) {
	if _, err := parseGenerationResponse([]byte("<html>502</html>")); err == nil {
		t.Error("non-JSON body should return an error")
	}
}
