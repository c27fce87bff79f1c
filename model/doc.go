// Package model defines stable boundary types for API layers.
//
// Protocol identity (canonical signing bytes and receipt CIDs) is unaffected
// by any projection. These structs are the only types intended for direct
// JSON serialization by consumers; every uint64 crosses the boundary as a
// decimal string so 64-bit values survive JavaScript clients.
package model
