// Package merge overlays user authored resource fragments onto generated resources.
//
// The fragment always wins: it is the base of the result and only the object
// fields it leaves unset are filled from the generated resource. Label,
// annotation and ConfigMap data entries whose fragment value is blank are
// removed from the result, which lets a fragment suppress a generated entry.
// Pod controllers additionally merge their pod template container by
// container: generated containers are aligned with fragment containers by
// position, or by name when sidecar alignment is enabled, and the unset scalar
// fields, health checks and security context of a fragment container are filled from
// its generated counterpart. Containers stay raw objects, so fields unknown to
// core/v1 survive.
//
// Merging is deterministic and idempotent: merging the same fragment twice
// yields the same resource as merging it once.
package merge
