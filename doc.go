/*
Package exent reads and writes EXENT, a human-writable notation for
structured data, and B-EXENT, its tagged binary counterpart. Both encode
the same value graph (package value), and both preserve identity: a
container that is reached twice is written once and referenced after, so
shared and cyclic data survive a round trip.

EXENT text looks like this:

	{
	    name: "EXENT",
	    price: 123.45d,            // decimal
	    id: 12345678901234567890n, // big integer
	    released: @2024-01-15T10:30:00.000Z,
	    roles: [&admin { name: admin }],
	    owner: { role: *admin }
	}

Commas are optional, keys need quotes only when they are not identifiers,
and backtick strings may span lines. &name binds a value to an anchor and
*name refers back to it.

The package offers two workflows.

1. Value Graphs

Parse and Stringify convert between text and a value.Value; Pack and
Unpack do the same for bytes. This path keeps every detail of the data
model: key order, the big, decimal and date types, and sharing.

	v, err := exent.Parse([]byte("&a0 { self: *a0 }"))
	if err != nil {
		// handle error
	}
	b, err := exent.Pack(v) // v.self is v, in binary too

2. Go Values

For converting EXENT data into Go structs (and vice versa), the Marshal
and Unmarshal functions provide an API mirroring encoding/json:

	type Config struct {
		Name    string  `exent:"name"`
		Version float64 `exent:"version,omitempty"`
	}

	var cfg Config
	if err := exent.Unmarshal(data, &cfg); err != nil {
		// handle error
	}

Pointers, maps and slices keep their identity in both directions: two
fields pointing at one struct are written as an anchor and a reference,
and decode back to one pointer.

Options such as MaxDepth, Indent and WithFormat configure every entry
point. Errors carry a kind from package errors, tested with errors.Is.
*/
package exent
