// Package schema parses the modelDescription.xml manifest shipped inside
// an FMU container and exposes the parsed metadata: model variables with
// their value references and declared types, interface capability flags,
// the default experiment, and the variable dependency structure.
//
// Both FMI 2.0 and FMI 3.0 manifests are supported; Parse dispatches on the
// fmiVersion attribute. The two versions declare variables differently
// (FMI2 uses a ScalarVariable element with a typed child, FMI3 uses one
// element per type) and reference unknowns differently in ModelStructure
// (FMI2 by 1-based variable index, FMI3 by value reference); the parsed
// Model normalizes both to value references.
//
// A Model is immutable after Parse and safe for concurrent use.
package schema
