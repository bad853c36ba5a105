package ocr

import (
	"fmt"
	"regexp"
	"strings"
)

// shortCodes maps the plugin's short language codes to Tesseract codes.
var shortCodes = map[string]string{
	"ch_sim": "chi_sim",
	"ch_tra": "chi_tra",
	"en":     "eng",
	"ja":     "jpn",
	"ko":     "kor",
	"de":     "deu",
	"fr":     "fra",
	"es":     "spa",
	"it":     "ita",
	"pt":     "por",
	"nl":     "nld",
	"pl":     "pol",
	"ru":     "rus",
	"uk":     "ukr",
	"tr":     "tur",
	"ar":     "ara",
	"fa":     "fas",
	"hi":     "hin",
	"th":     "tha",
	"vi":     "vie",
	"id":     "ind",
	"ms":     "msa",
	"sv":     "swe",
	"da":     "dan",
	"no":     "nor",
	"fi":     "fin",
	"cs":     "ces",
	"el":     "ell",
	"he":     "heb",
}

// tesseractCode matches native Tesseract codes such as "eng", "chi_sim" or "script/Latin".
var tesseractCode = regexp.MustCompile(`^([a-z]{3}(_[a-z]+)*|script/[A-Za-z_]+)$`)

// ResolveLanguages converts a language list into Tesseract codes, preserving
// order and dropping duplicates. An empty list resolves DefaultLanguages.
func ResolveLanguages(langs []string) ([]string, error) {
	if len(langs) == 0 {
		langs = DefaultLanguages
	}

	resolved := make([]string, 0, len(langs))
	seen := make(map[string]bool, len(langs))
	for _, lang := range langs {
		code, err := resolveLanguage(lang)
		if err != nil {
			return nil, err
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		resolved = append(resolved, code)
	}
	return resolved, nil
}

func resolveLanguage(lang string) (string, error) {
	l := strings.TrimSpace(lang)
	if code, ok := shortCodes[strings.ToLower(l)]; ok {
		return code, nil
	}
	if tesseractCode.MatchString(l) {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
}

// missingLanguages returns the requested codes absent from the installed set.
func missingLanguages(requested, installed []string) []string {
	have := make(map[string]bool, len(installed))
	for _, l := range installed {
		have[l] = true
	}
	var missing []string
	for _, l := range requested {
		if !have[l] {
			missing = append(missing, l)
		}
	}
	return missing
}
