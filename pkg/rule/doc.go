// Package rule decides where a file belongs, based on its tags.
//
// A [Rule] pairs a list of tags with a [MatchType] and a destination
// directory. A [RuleSet] is evaluated in order and the first matching rule
// wins; there is no priority field.
package rule
