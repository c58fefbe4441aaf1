// Package telemetry moves kernel data off the robot.
//
// The serial link carries small frames:
//
//	[seq] [code | len<<4] [len if >= 7] [data...]
//
// seq runs 1..0xef and wraps. The low nibble plus bit 7 of the second byte
// is the frame code, bit 7 marking events (frames nobody replies to). A
// length of 7 or more is sent in its own byte and must stay below 0x80.
// There is no checksum; a decoder resynchronizes on the next valid
// sequence byte.
//
// Profile and channel reports for the network side are encoded as
// protobuf Struct values, or their JSON form.
package telemetry
