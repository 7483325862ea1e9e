// Package alert contains core domain types for hazard alerts.
//
// It defines the Alert record, its lifecycle State and the severity rules
// used both for direct alert creation and for scenario expansion.
package alert
