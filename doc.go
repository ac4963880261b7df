// Package bencode provides an extensible codec for the bencode serialization format as
// used by BitTorrent metainfo files. A [Codec] converts between byte sequences and a
// tree of [Value]s: integers ([Int]), byte strings ([Bytes]), lists ([List]) and
// dictionaries ([Dict]).
//
// The set of codable types is pluggable. Optional extensions add unicode text
// ([Text]), floats ([Float]) and a null marker ([None]), and [WithTypes] registers
// custom [CodableType]s. Dictionaries are always encoded with their keys in canonical
// order. Decoding tolerates unordered keys and reports them as warnings.
//
// With [WithDecoration] every decoded value is wrapped into a [Decorated] holding the
// byte span it was decoded from. This allows hashing the exact bytes of a sub value,
// e.g. the info dictionary of a torrent, see [FindSpan]. [Direct] values are spliced
// into the output verbatim on encode.
//
// [ValueOf] and [UnmarshalValue] map value trees to and from Go types, similar to
// [json.Marshal] and [json.Unmarshal].
package bencode
