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

package normalize

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestPrompt(t *testing.T) {
	assert.Equal(t, "", Prompt(""))
	assert.Equal(t, "weather london?", Prompt("  What is   the Weather in London?  "))
	assert.Equal(t, "stock price aapl", Prompt("the stock price of AAPL"))
}

func TestLocation(t *testing.T) {
	cases := map[string]string{
		"":            "",
		"Nice, Fr":    "Nice,FR",
		"NCE":         "Nice,FR",
		"nice":        "Nice,FR",
		"London":      "London,GB",
		"london, uk":  "London,GB",
		"LHR":         "London,GB",
		"new york":    "New York,US",
		"NYC":         "New York,US",
		"Tokyo,JP":    "Tokyo,JP",
		"paris, France": "Paris,FR",
		"Atlantis":    "Atlantis", // unknown passes through
	}
	for in, want := range cases {
		assert.Equal(t, want, Location(in), "Location(%q)", in)
	}
}

func TestDate(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"2026-03-14":       "2026-03-14",
		"2026/03/14":       "2026-03-14",
		"14/03/2026":       "2026-03-14",
		"Mar 14, 2026":     "2026-03-14",
		"14 March 2026":    "2026-03-14",
		"next tuesday":     "next tuesday", // unparsable passes through
	}
	for in, want := range cases {
		assert.Equal(t, want, Date(in), "Date(%q)", in)
	}
}

func TestLanguage(t *testing.T) {
	cases := map[string]string{
		"":        "",
		"english": "en",
		"English": "en",
		"FRENCH":  "fr",
		"fra":     "fr",
		"EN":      "en",
		"de":      "de",
		"klingon": "klingon", // unknown passes through lowercased
	}
	for in, want := range cases {
		assert.Equal(t, want, Language(in), "Language(%q)", in)
	}
}

func TestIdempotence(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	freeText := gen.RegexMatch(`[ A-Za-z0-9,./?'-]{0,40}`)

	properties.Property("Prompt is idempotent", prop.ForAll(
		func(s string) bool { return Prompt(Prompt(s)) == Prompt(s) },
		freeText,
	))
	properties.Property("Location is idempotent", prop.ForAll(
		func(s string) bool { return Location(Location(s)) == Location(s) },
		freeText,
	))
	properties.Property("Date is idempotent", prop.ForAll(
		func(s string) bool { return Date(Date(s)) == Date(s) },
		freeText,
	))
	properties.Property("Language is idempotent", prop.ForAll(
		func(s string) bool { return Language(Language(s)) == Language(s) },
		freeText,
	))

	properties.TestingRun(t)
}

func TestKnownLocationsIdempotent(t *testing.T) {
	for _, canonical := range cityAliases {
		assert.Equal(t, canonical, Location(canonical))
	}
	for _, canonical := range iataCities {
		assert.Equal(t, canonical, Location(canonical))
	}
}
