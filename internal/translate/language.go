package translate

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Language is the detected language of a set of lyric lines.
type Language struct {
	Code       string // ISO 639-3
	Code1      string // ISO 639-1, empty when the language has none
	Name       string
	Confidence float64
	Reliable   bool
}

// DetectLanguage guesses the dominant language of texts. It returns
// false when there is no text to inspect.
func DetectLanguage(texts []string) (Language, bool) {
	joined := strings.TrimSpace(strings.Join(texts, "\n"))
	if joined == "" {
		return Language{}, false
	}

	info := whatlanggo.Detect(joined)
	if info.Lang == -1 {
		return Language{}, false
	}
	return Language{
		Code:       info.Lang.Iso6393(),
		Code1:      info.Lang.Iso6391(),
		Name:       info.Lang.String(),
		Confidence: info.Confidence,
		Reliable:   info.IsReliable(),
	}, true
}

// Matches reports whether name refers to l by its English name or either
// ISO code, ignoring case.
func (l Language) Matches(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, v := range []string{l.Name, l.Code, l.Code1} {
		if v != "" && strings.EqualFold(v, name) {
			return true
		}
	}
	return false
}
