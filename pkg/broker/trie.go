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

package broker

import (
	"github.com/teradata-labs/amcp/pkg/event"
)

// subKey identifies a subscription; Subscribe is idempotent per key.
type subKey struct {
	agentID event.AgentID
	pattern string
}

// trieNode is one segment of the subscription trie. Literal children are
// keyed by segment; "*" subscriptions hang off the star child; "**"
// subscriptions terminate at multi and match any remaining suffix.
type trieNode struct {
	children map[string]*trieNode
	star     *trieNode
	exact    map[subKey]*subscription
	multi    map[subKey]*subscription
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// subscriptionTrie matches topics against registered patterns in
// O(segments) per literal path, plus the wildcard branches taken.
// Not safe for concurrent use; the broker guards it with its own lock.
type subscriptionTrie struct {
	root  *trieNode
	count int
}

func newSubscriptionTrie() *subscriptionTrie {
	return &subscriptionTrie{root: newTrieNode()}
}

// insert adds or replaces the subscription for its (agent, pattern) key.
// The pattern must already be validated.
func (t *subscriptionTrie) insert(sub *subscription) {
	node := t.root
	segs := event.SplitTopic(sub.key.pattern)
	for _, seg := range segs {
		switch seg {
		case "**":
			// Terminal by grammar.
			if node.multi == nil {
				node.multi = make(map[subKey]*subscription)
			}
			if _, exists := node.multi[sub.key]; !exists {
				t.count++
			}
			node.multi[sub.key] = sub
			return
		case "*":
			if node.star == nil {
				node.star = newTrieNode()
			}
			node = node.star
		default:
			child := node.children[seg]
			if child == nil {
				child = newTrieNode()
				node.children[seg] = child
			}
			node = child
		}
	}
	if node.exact == nil {
		node.exact = make(map[subKey]*subscription)
	}
	if _, exists := node.exact[sub.key]; !exists {
		t.count++
	}
	node.exact[sub.key] = sub
}

// remove deletes the subscription for the key, if present. Empty nodes
// are left in place; churn on patterns is low and lookups skip them.
func (t *subscriptionTrie) remove(key subKey) bool {
	node := t.root
	segs := event.SplitTopic(key.pattern)
	for _, seg := range segs {
		switch seg {
		case "**":
			if _, ok := node.multi[key]; ok {
				delete(node.multi, key)
				t.count--
				return true
			}
			return false
		case "*":
			if node.star == nil {
				return false
			}
			node = node.star
		default:
			child := node.children[seg]
			if child == nil {
				return false
			}
			node = child
		}
	}
	if _, ok := node.exact[key]; ok {
		delete(node.exact, key)
		t.count--
		return true
	}
	return false
}

// removeAgent drops every subscription belonging to the agent and
// returns the removed keys.
func (t *subscriptionTrie) removeAgent(agentID event.AgentID) []subKey {
	var removed []subKey
	var walk func(n *trieNode)
	walk = func(n *trieNode) {
		for key := range n.exact {
			if key.agentID == agentID {
				delete(n.exact, key)
				t.count--
				removed = append(removed, key)
			}
		}
		for key := range n.multi {
			if key.agentID == agentID {
				delete(n.multi, key)
				t.count--
				removed = append(removed, key)
			}
		}
		for _, child := range n.children {
			walk(child)
		}
		if n.star != nil {
			walk(n.star)
		}
	}
	walk(t.root)
	return removed
}

// match collects every subscription whose pattern matches the topic.
// Each subscription appears at most once because each key occupies a
// single slot in the trie.
func (t *subscriptionTrie) match(topic string) []*subscription {
	var out []*subscription
	t.root.collect(event.SplitTopic(topic), &out)
	return out
}

func (n *trieNode) collect(segs []string, out *[]*subscription) {
	// "**" matches zero or more remaining segments.
	for _, sub := range n.multi {
		*out = append(*out, sub)
	}
	if len(segs) == 0 {
		for _, sub := range n.exact {
			*out = append(*out, sub)
		}
		return
	}
	if child := n.children[segs[0]]; child != nil {
		child.collect(segs[1:], out)
	}
	if n.star != nil {
		n.star.collect(segs[1:], out)
	}
}

// size returns the number of registered subscriptions.
func (t *subscriptionTrie) size() int { return t.count }
