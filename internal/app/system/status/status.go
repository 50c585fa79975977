// Package status holds the lifecycle values stored on agencies, groups,
// users and memberships.
package status

const (
	Active   = "active"
	Disabled = "disabled"
)
