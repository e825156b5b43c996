// Package codec implements B-EXENT, the tagged binary form of a value graph.
//
// A document is one encoded value. Each value starts with a tag byte;
// multi-byte payloads are big-endian. Arrays and objects are numbered in
// the order they are first written, and a later occurrence of the same
// container is written as REF followed by that number.
package codec

import "strconv"

// Tag identifies the type of the value that follows it.
type Tag byte

const (
	TagNull     Tag = 0x00
	TagTrue     Tag = 0x01
	TagFalse    Tag = 0x02
	TagInt32    Tag = 0x03 // int32
	TagFloat64  Tag = 0x04 // IEEE-754 double
	TagBigInt64 Tag = 0x05 // int64
	TagString   Tag = 0x06 // uint32 length, UTF-8 bytes
	TagDate     Tag = 0x07 // double, milliseconds since the Unix epoch
	TagArray    Tag = 0x08 // uint32 count, values
	TagObject   Tag = 0x09 // uint32 count, (uint32 key length, key bytes, value) pairs
	TagDecimal  Tag = 0x0A // IEEE-754 double
	TagRef      Tag = 0x0B // uint32 container number
)

var tagNames = [...]string{
	TagNull:     "NULL",
	TagTrue:     "TRUE",
	TagFalse:    "FALSE",
	TagInt32:    "INT32",
	TagFloat64:  "FLOAT64",
	TagBigInt64: "BIGINT64",
	TagString:   "STRING",
	TagDate:     "DATE",
	TagArray:    "ARRAY",
	TagObject:   "OBJECT",
	TagDecimal:  "DECIMAL",
	TagRef:      "REF",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "0x" + strconv.FormatUint(uint64(t), 16)
}

// Valid reports whether t is a known tag.
func (t Tag) Valid() bool {
	return int(t) < len(tagNames)
}
