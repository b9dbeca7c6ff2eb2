// Package notify prints formatted, colored messages for kubepack users.
//
// Message types include success (✔), error (✗), warning (⚠), info (ℹ),
// activity (►), debug (·) and title messages with an emoji.
//
// Core services do not print directly; they receive a [Logger], which maps
// leveled printf-style calls onto these message types.
package notify
