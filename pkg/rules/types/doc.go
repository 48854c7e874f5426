// Package types defines the closed vocabulary rules are written in: the
// applications a rule can read from, the properties each exposes, the data
// kinds (RuleType) of those properties and the comparison operators
// (Possibility) each kind admits.
//
// # Legality table
//
//	NUMBER           BIGGER, SMALLER, EQUALS
//	DATE             BIGGER, SMALLER, EQUALS, BEFORE, AFTER, IN_LAST, IN_NEXT
//	TEXT             EQUALS, CONTAINS
//	USER             EQUALS
//	*_GROUP          CONTAINS
//
// The application catalog is exposed through Table, which is built once at
// startup and never mutated:
//
//	table := types.NewTable()
//	ref, ok := table.Lookup("plex.addDate")
//	prop, _ := table.Property(ref)
//	fmt.Println(prop.Type, types.Possibilities(prop.Type))
package types
