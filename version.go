package tcow

// Version is the on-disk format version this build reads and writes. It is
// the same number stored in the 16-byte file Header and in the Trailer's
// format-version field (spec §3).
const Version uint16 = 1

// BuildVersion is a human-readable version string for the tcow binary
// itself, printed by `tcow -version` and `tcow version`. It carries no
// relation to Version, the on-disk format number.
var BuildVersion = "dev"
