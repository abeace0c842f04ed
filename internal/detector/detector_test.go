package detector

import (
	"testing"
)

func TestDetector_Detect(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		text     string
		wantLang string
		wantOK   bool
	}{
		{
			name:     "empty text",
			text:     "",
			wantLang: "",
			wantOK:   false,
		},
		{
			name:     "english text",
			text:     "Hello, this is a test in English.",
			wantLang: "English",
			wantOK:   true,
		},
		{
			name:     "ukrainian text",
			text:     "Привіт, це тест українською мовою.",
			wantLang: "Ukrainian",
			wantOK:   true,
		},
		{
			name:     "german text",
			text:     "Hallo, das ist ein Test auf Deutsch.",
			wantLang: "German",
			wantOK:   true,
		},
		{
			name:     "french text",
			text:     "Bonjour, ceci est un test en français.",
			wantLang: "French",
			wantOK:   true,
		},
		{
			name:     "spanish text",
			text:     "Hola, esto es una prueba en español.",
			wantLang: "Spanish",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, ok := d.Detect(tt.text)
			if ok != tt.wantOK {
				t.Errorf("Detect(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if tt.wantOK && lang.String() != tt.wantLang {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, lang, tt.wantLang)
			}
		})
	}
}

func TestDetector_Identify(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		text     string
		wantCode string
		wantOK   bool
	}{
		{name: "empty text", text: "", wantOK: false},
		{name: "whitespace only", text: "   \n\t", wantOK: false},
		{name: "english text", text: "Hello, this is a test in English.", wantCode: "en", wantOK: true},
		{name: "ukrainian text", text: "Привіт, це тест українською мовою.", wantCode: "uk", wantOK: true},
		{name: "german text", text: "Hallo, das ist ein Test auf Deutsch.", wantCode: "de", wantOK: true},
		{name: "french text", text: "Bonjour, ceci est un test en français.", wantCode: "fr", wantOK: true},
		{name: "russian text", text: "Это тест на русском языке.", wantCode: "ru", wantOK: true},
		{name: "japanese text", text: "勇者は魔王を倒すために旅に出た。", wantCode: "ja", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, conf, ok := d.Identify(tt.text)
			if ok != tt.wantOK {
				t.Errorf("Identify(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if !tt.wantOK {
				return
			}
			if code != tt.wantCode {
				t.Errorf("Identify(%q) = %q, want %q", tt.text, code, tt.wantCode)
			}
			if conf <= 0 || conf > 1 {
				t.Errorf("Identify(%q) confidence = %v, want (0, 1]", tt.text, conf)
			}
		})
	}
}

func TestDetector_ShortText(t *testing.T) {
	d := New()

	code, _, ok := d.Identify("Hi")
	// Short text may or may not be detected, just check it doesn't panic
	_ = code
	_ = ok
}
