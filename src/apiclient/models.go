package apiclient

import (
	"context"
	"net/http"

	"github.com/elee1766/playground/src/catalog"
)

// InstalledModels lists models already present on the local runtime.
func (c *Client) InstalledModels(ctx context.Context) ([]catalog.ModelRef, error) {
	return c.listModels(ctx, "/models")
}

// PullableModels lists models the runtime can download.
func (c *Client) PullableModels(ctx context.Context) ([]catalog.ModelRef, error) {
	return c.listModels(ctx, "/models/pull")
}

// CatalogModels lists every model the runtime knows about.
func (c *Client) CatalogModels(ctx context.Context) ([]catalog.ModelRef, error) {
	return c.listModels(ctx, "/models/all")
}

// RunningModels lists models currently loaded.
func (c *Client) RunningModels(ctx context.Context) ([]catalog.ModelRef, error) {
	return c.listModels(ctx, "/models/running")
}

// listModels returns an error only when the exchange itself failed. A 2xx
// body that is not a usable model list degrades to an empty list.
func (c *Client) listModels(ctx context.Context, path string) ([]catalog.ModelRef, error) {
	body, err := c.call(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	refs := catalog.ParseModelList(body)
	if len(refs) == 0 {
		c.logger.Debug("empty or malformed model list", "path", path, "body", truncate(body))
	}
	return refs, nil
}

type actionResponse struct {
	envelope
	Status  string `json:"status,omitempty"`
	ModelID string `json:"model_id,omitempty"`
}

// PullModel asks the backend to download and start a model. The raw
// identifier is sent as given.
func (c *Client) PullModel(ctx context.Context, id string) (string, error) {
	return c.modelAction(ctx, "/models/pull/", id)
}

// StopModel asks the backend to unload a model.
func (c *Client) StopModel(ctx context.Context, id string) (string, error) {
	return c.modelAction(ctx, "/models/stop/", id)
}

func (c *Client) modelAction(ctx context.Context, prefix, id string) (string, error) {
	escaped, err := pathID(id)
	if err != nil {
		return "", err
	}

	var resp actionResponse
	if err := c.callJSON(ctx, http.MethodPost, prefix+escaped, nil, nil, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", resp.rejection(http.StatusOK)
	}

	c.logger.Info("model action accepted", "path", prefix, "model", id, "status", resp.Status)
	return resp.messageText(), nil
}
