package translate

// languageNames maps ISO 639-1 codes to the English names used when phrasing
// the translation instruction. Unknown codes fall back to the code itself.
var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"hi": "Hindi",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ar": "Arabic",
	"ru": "Russian",
	"nl": "Dutch",
	"pl": "Polish",
	"tr": "Turkish",
}

// LanguageName returns the English name for a language code, or the code
// itself when it is not in the table.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}

	return code
}
