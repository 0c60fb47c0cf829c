// Package exporter serializes projected tables and grouped attendance
// reports to spreadsheet and CSV files.
package exporter
