// Package dataprocessing holds the schema-reconciliation core: reading
// uploaded workbooks into typed tables, projecting a source table into a
// reference column layout, partitioning rows into operator-declared groups,
// and computing per-group summary statistics.
package dataprocessing
