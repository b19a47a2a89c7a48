package webapp

import (
	"golang.org/x/text/language"
)

// LanguageCode is the IETF language tag of a user. Any string is accepted; Known reports
// whether it belongs to the set of tags hosts are documented to send.
type LanguageCode string

var knownLanguageCodes = func() map[string]struct{} {
	m := make(map[string]struct{}, len(languageCodes))
	for _, code := range languageCodes {
		m[code] = struct{}{}
	}
	return m
}()

// Known reports whether c is one of the enumerated host language tags.
func (c LanguageCode) Known() bool {
	_, ok := knownLanguageCodes[string(c)]
	return ok
}

// Tag parses c into a canonical language tag, or language.Und when c is empty or malformed.
func (c LanguageCode) Tag() language.Tag {
	if c == "" {
		return language.Und
	}
	tag, err := language.Parse(string(c))
	if err != nil {
		return language.Und
	}
	return tag
}

// KnownLanguageCodes returns a copy of the enumerated tags.
func KnownLanguageCodes() []LanguageCode {
	out := make([]LanguageCode, len(languageCodes))
	for i, code := range languageCodes {
		out[i] = LanguageCode(code)
	}
	return out
}
