// Package cid implements content identifiers (CIDs): self-describing
// references that tie a multicodec content type to a multihash digest, in
// both the legacy V0 and general V1 shapes.
package cid
