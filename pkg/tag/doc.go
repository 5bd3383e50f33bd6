// Package tag reads the user tags attached to a file.
//
// Tags live in an extended attribute holding a property list of strings.
// The encoding has several variants in the wild, so extraction runs an
// ordered chain of [Strategy] values and keeps the first non-empty result:
//
//  1. [PlistStrategy] decodes the attribute as a property list.
//  2. [ConverterStrategy] converts a signature-prefixed blob to XML with an
//     external tool and collects its <string> values.
//  3. [QueryStrategy] asks a metadata query tool for the same attribute.
//  4. [HeuristicStrategy] splits the raw bytes into word-like tokens.
//
// Extraction never fails the caller. A file whose tags cannot be read has
// no tags.
package tag
