// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package normalize canonicalizes prompts, locations, dates and
// language codes before hashing and planning. All normalizers are
// pure, total and idempotent; unparsable input passes through
// unchanged.
package normalize

import (
	"strings"
	"time"
	"unicode"
)

// stopWords are dropped from normalized prompts and extracted
// keywords.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"of": true, "to": true, "in": true, "on": true, "at": true,
	"for": true, "with": true, "and": true, "or": true, "but": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"do": true, "does": true, "did": true, "can": true, "could": true,
	"will": true, "would": true, "should": true, "what": true,
	"whats": true, "who": true, "how": true, "when": true, "where": true,
	"i": true, "you": true, "he": true, "she": true, "we": true,
	"they": true, "me": true, "my": true, "your": true, "please": true,
}

// IsStopWord reports whether the lowercase word is in the stop list.
func IsStopWord(word string) bool {
	return stopWords[word]
}

// Prompt trims, collapses whitespace, lowercases and strips stop
// words. Word order is preserved.
func Prompt(s string) string {
	if s == "" {
		return ""
	}
	var kept []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		if !stopWords[strings.Trim(word, ".,!?;:'\"")] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// countryCodes maps lowercase country names to ISO 3166-1 alpha-2.
var countryCodes = map[string]string{
	"france": "FR", "germany": "DE", "spain": "ES", "italy": "IT",
	"japan": "JP", "china": "CN", "india": "IN", "brazil": "BR",
	"canada": "CA", "australia": "AU", "russia": "RU", "mexico": "MX",
	"netherlands": "NL", "switzerland": "CH", "sweden": "SE",
	"united kingdom": "GB", "uk": "GB", "great britain": "GB",
	"england": "GB", "united states": "US", "usa": "US",
	"united states of america": "US", "south korea": "KR",
	"singapore": "SG", "uae": "AE", "united arab emirates": "AE",
}

// cityAliases maps lowercase well-known city names and informal
// aliases to canonical "City,CC".
var cityAliases = map[string]string{
	"london": "London,GB", "paris": "Paris,FR", "nice": "Nice,FR",
	"berlin": "Berlin,DE", "munich": "Munich,DE", "madrid": "Madrid,ES",
	"barcelona": "Barcelona,ES", "rome": "Rome,IT", "milan": "Milan,IT",
	"tokyo": "Tokyo,JP", "osaka": "Osaka,JP", "beijing": "Beijing,CN",
	"shanghai": "Shanghai,CN", "mumbai": "Mumbai,IN", "delhi": "Delhi,IN",
	"sydney": "Sydney,AU", "melbourne": "Melbourne,AU",
	"new york": "New York,US", "nyc": "New York,US",
	"san francisco": "San Francisco,US", "los angeles": "Los Angeles,US",
	"chicago": "Chicago,US", "boston": "Boston,US", "seattle": "Seattle,US",
	"toronto": "Toronto,CA", "vancouver": "Vancouver,CA",
	"amsterdam": "Amsterdam,NL", "zurich": "Zurich,CH", "geneva": "Geneva,CH",
	"stockholm": "Stockholm,SE", "moscow": "Moscow,RU", "dubai": "Dubai,AE",
	"singapore": "Singapore,SG", "seoul": "Seoul,KR",
}

// iataCities maps IATA location codes to canonical "City,CC".
var iataCities = map[string]string{
	"LHR": "London,GB", "LGW": "London,GB", "LON": "London,GB",
	"CDG": "Paris,FR", "ORY": "Paris,FR", "PAR": "Paris,FR",
	"NCE": "Nice,FR", "BER": "Berlin,DE", "MUC": "Munich,DE",
	"MAD": "Madrid,ES", "BCN": "Barcelona,ES", "FCO": "Rome,IT",
	"NRT": "Tokyo,JP", "HND": "Tokyo,JP", "TYO": "Tokyo,JP",
	"PEK": "Beijing,CN", "PVG": "Shanghai,CN", "BOM": "Mumbai,IN",
	"DEL": "Delhi,IN", "SYD": "Sydney,AU", "MEL": "Melbourne,AU",
	"JFK": "New York,US", "EWR": "New York,US", "NYC": "New York,US",
	"SFO": "San Francisco,US", "LAX": "Los Angeles,US",
	"ORD": "Chicago,US", "BOS": "Boston,US", "SEA": "Seattle,US",
	"YYZ": "Toronto,CA", "YVR": "Vancouver,CA", "AMS": "Amsterdam,NL",
	"ZRH": "Zurich,CH", "GVA": "Geneva,CH", "ARN": "Stockholm,SE",
	"SVO": "Moscow,RU", "DXB": "Dubai,AE", "SIN": "Singapore,SG",
	"ICN": "Seoul,KR",
}

// Location canonicalizes a location to "City,CC". Recognized inputs:
// "City,CC", "City, Country", bare IATA codes and well-known city
// aliases. Unrecognized input passes through trimmed.
func Location(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}

	if city, rest, found := strings.Cut(trimmed, ","); found {
		city = titleCase(strings.TrimSpace(city))
		rest = strings.TrimSpace(rest)
		if len(rest) == 2 && isAlpha(rest) {
			return city + "," + strings.ToUpper(rest)
		}
		if cc, ok := countryCodes[strings.ToLower(rest)]; ok {
			return city + "," + cc
		}
		return trimmed
	}

	if len(trimmed) == 3 && isAlpha(trimmed) {
		if canonical, ok := iataCities[strings.ToUpper(trimmed)]; ok {
			return canonical
		}
	}
	if canonical, ok := cityAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// dateFormats are tried in order by Date.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"2006.01.02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC3339,
}

// Date parses a fixed list of formats and outputs ISO "YYYY-MM-DD".
// Unparsable input passes through unchanged.
func Date(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return trimmed
}

// languageCodes maps language names and ISO 639-2 codes to ISO 639-1.
var languageCodes = map[string]string{
	"english": "en", "eng": "en", "french": "fr", "fra": "fr", "fre": "fr",
	"german": "de", "deu": "de", "ger": "de", "spanish": "es", "spa": "es",
	"italian": "it", "ita": "it", "japanese": "ja", "jpn": "ja",
	"chinese": "zh", "zho": "zh", "chi": "zh", "mandarin": "zh",
	"portuguese": "pt", "por": "pt", "russian": "ru", "rus": "ru",
	"korean": "ko", "kor": "ko", "hindi": "hi", "hin": "hi",
	"arabic": "ar", "ara": "ar", "dutch": "nl", "nld": "nl",
	"swedish": "sv", "swe": "sv",
}

// Language outputs the ISO 639-1 lowercase two-letter code. Two-letter
// input is lowercased as-is; unknown input passes through lowercased.
func Language(s string) string {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" {
		return ""
	}
	if code, ok := languageCodes[trimmed]; ok {
		return code
	}
	return trimmed
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// titleCase uppercases the first letter of each word, lowercasing the
// rest: "new york" -> "New York".
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
