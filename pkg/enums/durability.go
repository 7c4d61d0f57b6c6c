package enums

// Durability states where a write landed. A local_only write survived only in
// the device-local cache and is not visible to other users until the remote
// store recovers.
type Durability string

const (
	DurabilityDurable   Durability = "durable"
	DurabilityLocalOnly Durability = "local_only"
)

// String implements fmt.Stringer.
func (d Durability) String() string {
	return string(d)
}
