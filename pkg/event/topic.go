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

package event

import (
	"errors"
	"fmt"
	"strings"
)

// Topic grammar: dot-separated segments of [A-Za-z0-9_-]. Subscription
// patterns additionally allow "*" (exactly one segment) and a terminal
// "**" (zero or more trailing segments). Wildcards are whole segments.

var (
	// ErrInvalidTopic reports a malformed topic on publish.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidPattern reports a malformed subscription pattern.
	ErrInvalidPattern = errors.New("invalid topic pattern")
)

// SplitTopic splits a topic into its segments.
func SplitTopic(topic string) []string {
	return strings.Split(topic, ".")
}

func literalSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

// ValidateTopic checks that a concrete topic conforms to the grammar.
// Wildcards are not allowed in publish topics.
func ValidateTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidTopic)
	}
	for _, seg := range SplitTopic(topic) {
		if !literalSegment(seg) {
			return fmt.Errorf("%w: bad segment %q in %q", ErrInvalidTopic, seg, topic)
		}
	}
	return nil
}

// ValidatePattern checks that a subscription pattern conforms to the
// grammar: literal segments, "*" for exactly one segment, and "**" only
// as the final segment.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	segs := SplitTopic(pattern)
	for i, seg := range segs {
		switch seg {
		case "*":
			// One-segment wildcard is valid anywhere.
		case "**":
			if i != len(segs)-1 {
				return fmt.Errorf("%w: %q must be the final segment in %q", ErrInvalidPattern, "**", pattern)
			}
		default:
			if strings.ContainsAny(seg, "*") {
				return fmt.Errorf("%w: wildcard must be a whole segment in %q", ErrInvalidPattern, pattern)
			}
			if !literalSegment(seg) {
				return fmt.Errorf("%w: bad segment %q in %q", ErrInvalidPattern, seg, pattern)
			}
		}
	}
	return nil
}

// Match reports whether a topic matches a subscription pattern.
// The pattern must be valid; Match returns an error otherwise so that
// route tables surface bad patterns instead of silently never firing.
func Match(pattern, topic string) (bool, error) {
	if err := ValidatePattern(pattern); err != nil {
		return false, err
	}
	return matchSegments(SplitTopic(pattern), SplitTopic(topic)), nil
}

// matchSegments matches pre-validated pattern segments against topic
// segments. "**" is terminal and matches zero or more remaining segments.
func matchSegments(pattern, topic []string) bool {
	for i, pseg := range pattern {
		if pseg == "**" {
			return true
		}
		if i >= len(topic) {
			return false
		}
		if pseg != "*" && pseg != topic[i] {
			return false
		}
	}
	return len(pattern) == len(topic)
}
