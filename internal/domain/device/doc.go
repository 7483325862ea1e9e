// Package device contains core domain types for connected field devices:
// the Device record, its Role and the zone-subscription matching rule.
package device
