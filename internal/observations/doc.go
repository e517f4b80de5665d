// Package observations decodes the screenshot document produced by the OCR
// stage: a JSON object keyed by video id whose values carry the upload date,
// title, uploader and a "screenshots" object mapping frame offsets (seconds)
// to recognized player names.
//
// Decoding keeps the document's key order and every unknown field so the
// annotated copy can be written back with the same shape. A screenshot whose
// names cannot be decoded does not fail the load; it carries the decode error
// and the owning video is isolated when it is processed.
package observations
