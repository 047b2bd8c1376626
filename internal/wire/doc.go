// Package wire decodes the Bridge response envelope.
//
// Bridge responses carry their result as {"payload": {"value": ...}}, and
// most nested fields are themselves {"value": ...} wrapped primitives.
// Some daemon versions send the same field bare. Everything that reads a
// Bridge response goes through Unwrap so the rule lives in one place.
package wire
