// Package http contains the chi HTTP handlers for the session workflow:
// uploads, mapping suggestion and editing, projection, the attendance
// report, and the download endpoints.
package http
