// Package services contains the business logic layer between the HTTP
// transport and the processing engines: the reformat workflow, the
// attendance report workflow, and health reporting.
package services
