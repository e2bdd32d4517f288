package documents

import (
	"slices"
	"strings"
	"unicode"
)

// xmlLanguageIDs are the client language identifiers handled as XML
var xmlLanguageIDs = []string{"xml", "xsl", "xslt", "xsd", "svg", "xhtml", "plist", "rss", "atom", "wsdl", "pom"}

// IsXMLLanguage reports whether a client language identifier denotes an XML
// dialect. extra lists additional identifiers from the user configuration.
func IsXMLLanguage(languageID string, extra ...string) bool {
	id := strings.ToLower(languageID)
	return slices.Contains(xmlLanguageIDs, id) || slices.Contains(extra, id)
}

// LooksLikeXML reports whether content opens with an XML declaration, a
// comment, or a tag. Used for documents opened with a generic language id.
func LooksLikeXML(content string) bool {
	trimmed := strings.TrimLeftFunc(strings.TrimPrefix(content, "\ufeff"), unicode.IsSpace)
	if len(trimmed) < 2 || trimmed[0] != '<' {
		return false
	}
	c := trimmed[1]
	return c == '?' || c == '!' || c == '_' || c == ':' ||
		unicode.IsLetter(rune(c)) || c >= 0x80
}
