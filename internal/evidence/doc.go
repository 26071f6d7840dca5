// Package evidence stores the items collected for forensic cases.
//
// An evidence record is either an Image (identified by image_url) or a Text
// note (carrying content). The two content fields are mutually exclusive and
// the type never changes after creation. The collecting user is recorded by
// id and expanded on read; once that user is deleted the collector reads as
// null while the evidence itself stays on record.
//
// Deleting evidence removes it from every case that links it.
package evidence
