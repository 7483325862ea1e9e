// Package common contains helpers shared by the device simulator commands,
// such as deriving a worker identity from the local environment.
package common
