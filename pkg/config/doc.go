// Package config loads charon's YAML documents.
//
// [Loader] validates a document against its JSON schema and decodes it into
// one of the versioned API types. [RuleLoader] builds on it to read the
// rules document fresh for every classification.
package config
