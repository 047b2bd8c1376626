package bridge

import (
	"context"
	"fmt"

	"github.com/nerrad567/holobridge/internal/playlist"
)

const (
	endpointShowWindow       = "show_window"
	endpointInstancePlaylist = "instance_playlist"
	endpointDeletePlaylist   = "delete_playlist"
	endpointInsertEntry      = "insert_playlist_entry"
	endpointPlayPlaylist     = "play_playlist"
	endpointSyncOverwrite    = "sync_overwrite_playlist"
	endpointUpdateEntry      = "update_playlist_entry"
	endpointUpdateCurrent    = "update_current_entry"
)

// Play installs p on the daemon and starts it on display head. Pass
// device.AnyDisplay to let the daemon pick the first holographic display.
//
// The request sequence is:
//  1. delete_playlist, only if a playlist with the same name is installed
//  2. show_window
//  3. instance_playlist
//  4. insert_playlist_entry for every item, in order
//  5. play_playlist
//
// The first failing step ends the sequence and its error is returned.
// Earlier steps are not rolled back. The installed-playlist tracker is set
// only after the whole sequence succeeds, and cleared for a same-name
// replace only once its delete succeeds.
//
// Thread Safety:
//   - Concurrent calls to Play, Delete and SyncOverwrite are serialised so
//     their requests never interleave.
func (c *Client) Play(ctx context.Context, p *playlist.Playlist, head int) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("%w: playlist must have a name", ErrInvalidArgument)
	}
	token, err := c.token()
	if err != nil {
		return err
	}

	c.playMu.Lock()
	defer c.playMu.Unlock()

	if c.InstalledPlaylist() == p.Name {
		if err := c.do(ctx, endpointDeletePlaylist, playlistBody(token, p), nil); err != nil {
			return err
		}
		c.mu.Lock()
		c.installed = ""
		c.mu.Unlock()
	}

	if err := c.showWindow(ctx, token, true, head); err != nil {
		return err
	}
	if err := c.do(ctx, endpointInstancePlaylist, playlistBody(token, p), nil); err != nil {
		return err
	}
	for i, it := range p.Items() {
		if err := c.do(ctx, endpointInsertEntry, insertBody(token, p.Name, i, it), nil); err != nil {
			return fmt.Errorf("inserting item %d of %q: %w", i, p.Name, err)
		}
	}
	if err := c.do(ctx, endpointPlayPlaylist, playBody(token, p.Name, head), nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.installed = p.Name
	c.mu.Unlock()

	c.logger.Info("playlist playing", "name", p.Name, "items", p.Len(), "head", head)
	return nil
}

// Delete removes p from the daemon. If p is the installed playlist the
// tracker is cleared before the request is sent, whatever its outcome.
func (c *Client) Delete(ctx context.Context, p *playlist.Playlist) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("%w: playlist must have a name", ErrInvalidArgument)
	}
	token, err := c.token()
	if err != nil {
		return err
	}

	c.playMu.Lock()
	defer c.playMu.Unlock()

	c.mu.Lock()
	if c.installed == p.Name {
		c.installed = ""
	}
	c.mu.Unlock()

	return c.do(ctx, endpointDeletePlaylist, playlistBody(token, p), nil)
}

// DeleteByName is Delete for callers that only know the playlist name.
func (c *Client) DeleteByName(ctx context.Context, name string, loop bool) error {
	p, err := playlist.New(name, loop)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return c.Delete(ctx, p)
}

// SyncOverwrite re-renders the installed playlist to its persisted copy
// using a fixed h265 profile. It returns ErrNoPlaylist when nothing is
// installed.
func (c *Client) SyncOverwrite(ctx context.Context, head int) error {
	token, err := c.token()
	if err != nil {
		return err
	}

	c.playMu.Lock()
	defer c.playMu.Unlock()

	name := c.InstalledPlaylist()
	if name == "" {
		return ErrNoPlaylist
	}

	return c.do(ctx, endpointSyncOverwrite, syncBody{
		Orchestration: token,
		Name:          name,
		HeadIndex:     head,
		CRF:           syncCRF,
		PixelFormat:   syncPixelFormat,
		Encoder:       syncEncoder,
	}, nil)
}

// UpdatePlaylistEntry changes one parameter of item index in playlist name
// while it plays. Most callers want the Debouncer instead.
func (c *Client) UpdatePlaylistEntry(ctx context.Context, name string, index int, param playlist.Parameter, value float64) error {
	if index < 0 {
		return fmt.Errorf("%w: item index %d", ErrInvalidArgument, index)
	}
	return c.updateEntry(ctx, name, index, param, value)
}

// UpdateCurrentEntry changes one parameter of whichever item is showing.
func (c *Client) UpdateCurrentEntry(ctx context.Context, name string, param playlist.Parameter, value float64) error {
	return c.updateEntry(ctx, name, -1, param, value)
}

func (c *Client) updateEntry(ctx context.Context, name string, index int, param playlist.Parameter, value float64) error {
	if _, err := playlist.ParseParameter(string(param)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	token, err := c.token()
	if err != nil {
		return err
	}
	endpoint := endpointUpdateEntry
	if index < 0 {
		endpoint = endpointUpdateCurrent
	}
	return c.do(ctx, endpoint, updateBody(token, name, index, param, value), nil)
}

// ShowWindow opens the daemon's output window on display head.
func (c *Client) ShowWindow(ctx context.Context, head int) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	return c.showWindow(ctx, token, true, head)
}

// HideWindow closes the daemon's output window on display head.
func (c *Client) HideWindow(ctx context.Context, head int) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	return c.showWindow(ctx, token, false, head)
}

func (c *Client) showWindow(ctx context.Context, token string, show bool, head int) error {
	return c.do(ctx, endpointShowWindow, showWindowBody{
		Orchestration: token,
		ShowWindow:    show,
		HeadIndex:     head,
	}, nil)
}
