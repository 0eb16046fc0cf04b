// Package transformer converts values between the device domain and the HAP
// wire domain.
//
// Both directions are pure functions and safe for concurrent use:
//
//   - FromClient: a value written by a HomeKit controller becomes a device
//     domain value (payload, enum string or coerced scalar).
//   - ToClient: a device domain value becomes what a HomeKit controller reads,
//     stepped, clamped, truncated and filtered against valid values.
//
// Coercion is lenient: unparseable numbers become 0 and unknown booleans
// become false. Enum resolution is strict: an ambiguous or unknown enum value
// yields nil, which callers treat as "no update".
package transformer
