// Package playlist defines the playlist model driven onto the Bridge daemon.
//
// A Playlist is a named, ordered list of Items plus a loop flag. The name is
// also the key Bridge uses, so only one playlist of a given name can be
// installed at a time. Item order is the playback order; removing an item
// closes the gap so indices stay contiguous.
//
// Items are either pre-tiled quilts (rows, cols, aspect, view count) or
// RGBD media, which add a depth parameter block.
//
// Playlists can be read from YAML, TOML or JSONC files:
//
//	p, err := playlist.LoadFile("show.yaml")
package playlist
