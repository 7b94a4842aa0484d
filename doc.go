// Package ownership reconstructs shareholding structures from hierarchical
// ownership tables and resolves the ultimate beneficial owners of an entity.
//
// The source tables list entities one per row. Which entity owns which is not
// written explicitly: a row with a name and no participation opens a holding
// entity, the rows that follow are its shareholders. The package turns such a
// table into an ownership graph and walks it down to the natural persons (or
// explicitly whitelisted operating companies) at the end of each chain.
//
// The core functionalities are:
//   - Parsing: an explicit state machine (Idle, ParentPending,
//     RootEstablished) converting ordered rows into ownership edges.
//   - Canonicalization: entity names are folded (case, accents, blanks) and
//     passed through an alias table, so two spellings of one entity share a key.
//   - Classification: a three-tier rule set, loaded from configuration,
//     decides whether an entity is a terminal beneficiary or a pass-through
//     corporate vehicle.
//   - Resolution: a weighted walk of the graph from a root entity, summing the
//     contributions reaching each beneficiary through any path.
//   - Tabular store: reading rows from CSV or XLSX files and writing the
//     resulting beneficiary table back as CSV, XLSX or JSONL.
//
// This package serves as the foundational logic for the `ubo` command-line
// tool.
package ownership
