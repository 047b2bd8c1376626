package bridge

import (
	"context"
	"fmt"

	"github.com/nerrad567/holobridge/internal/wire"
)

const (
	endpointSaveOut          = "source_saveout"
	endpointReadBack         = "source_readback"
	endpointCameraParameters = "get_camera_parameters"
)

// SourceQuiltView names the rendered quilt of the current item, the source
// used to turn RGBD media into a quilt image.
const SourceQuiltView = "QUILT_VIEW"

// SaveOut asks the daemon to write a render source to filename on its own
// filesystem.
func (c *Client) SaveOut(ctx context.Context, source, filename string) error {
	if source == "" || filename == "" {
		return fmt.Errorf("%w: source and filename are required", ErrInvalidArgument)
	}
	token, err := c.token()
	if err != nil {
		return err
	}
	return c.do(ctx, endpointSaveOut, map[string]string{
		"orchestration": token,
		"source":        source,
		"filename":      filename,
	}, nil)
}

// ReadBack returns the daemon's current value for a render source as JSON
// text. Scalar values come back as their JSON form, e.g. a quoted string.
func (c *Client) ReadBack(ctx context.Context, source string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("%w: source is required", ErrInvalidArgument)
	}
	token, err := c.token()
	if err != nil {
		return "", err
	}

	var value string
	err = c.do(ctx, endpointReadBack, map[string]string{
		"orchestration": token,
		"source":        source,
	}, func(resp []byte) error {
		payload, err := wire.Payload(resp)
		if err != nil {
			return err
		}
		value = string(payload)
		return nil
	})
	return value, err
}

// CameraParameters returns the virtual camera settings for display head
// with value wrappers removed.
func (c *Client) CameraParameters(ctx context.Context, head int) (map[string]any, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}

	var params map[string]any
	err = c.do(ctx, endpointCameraParameters, struct {
		Orchestration string `json:"orchestration"`
		HeadIndex     int    `json:"head_index"`
	}{token, head}, func(resp []byte) error {
		payload, err := wire.Payload(resp)
		if err != nil {
			return err
		}
		params, err = decodeMap(payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return params, nil
}
