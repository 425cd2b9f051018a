package exprconv

import (
	"strings"
)

var acronyms = map[string]bool{
	"id":    true,
	"url":   true,
	"uri":   true,
	"api":   true,
	"http":  true,
	"https": true,
	"html":  true,
	"xml":   true,
	"json":  true,
	"sql":   true,
	"uuid":  true,
	"uid":   true,
	"ip":    true,
	"tcp":   true,
	"udp":   true,
	"rpc":   true,
	"grpc":  true,
	"jwt":   true,
	"sku":   true,
	"ui":    true,
	"seo":   true,
	"db":    true,
	"pdf":   true,
	"csv":   true,
	"dns":   true,
	"cpu":   true,
}

// SmartPascalCase converts camelCase to PascalCase with proper handling of common acronyms,
// e.g. "customerId" -> "CustomerID".
func SmartPascalCase(s string) string {
	if s == "" {
		return s
	}

	var words []string
	var currentWord strings.Builder

	for i, r := range s {
		if r == '_' || r == '-' {
			if currentWord.Len() > 0 {
				words = append(words, strings.ToLower(currentWord.String()))
				currentWord.Reset()
			}
			continue
		}
		if i > 0 && r >= 'A' && r <= 'Z' && currentWord.Len() > 0 {
			words = append(words, strings.ToLower(currentWord.String()))
			currentWord.Reset()
		}
		currentWord.WriteRune(r)
	}
	if currentWord.Len() > 0 {
		words = append(words, strings.ToLower(currentWord.String()))
	}

	var result strings.Builder
	for _, word := range words {
		if acronyms[word] {
			result.WriteString(strings.ToUpper(word))
		} else {
			result.WriteString(strings.ToUpper(word[:1]) + word[1:])
		}
	}

	return result.String()
}

// NormalizePath applies SmartPascalCase to every segment of a dotted path.
func NormalizePath(path string) string {
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		segs[i] = SmartPascalCase(strings.TrimSpace(seg))
	}
	return strings.Join(segs, ".")
}
