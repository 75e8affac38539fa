package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// GetPortfolio fetches the whole document. It is public and needs no session.
func (c *Client) GetPortfolio(ctx context.Context) (*models.Portfolio, error) {
	var p models.Portfolio
	err := c.doJSON(ctx, request{
		op:     "get portfolio",
		method: http.MethodGet,
		path:   "/api/portfolio",
		route:  "/api/portfolio",
	}, nil, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePersonalInfo replaces the personal info block.
func (c *Client) UpdatePersonalInfo(ctx context.Context, info models.PersonalInfo) error {
	return c.doJSON(ctx, request{
		op:     "update personal info",
		method: http.MethodPut,
		path:   "/api/admin/portfolio/personal",
		route:  "/api/admin/portfolio/personal",
		admin:  true,
	}, info, nil)
}

// UpdateSocialLinks replaces the social links block.
func (c *Client) UpdateSocialLinks(ctx context.Context, links models.SocialLinks) error {
	return c.doJSON(ctx, request{
		op:     "update social links",
		method: http.MethodPut,
		path:   "/api/admin/portfolio/social-links",
		route:  "/api/admin/portfolio/social-links",
		admin:  true,
	}, links, nil)
}

type createResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CreateItem adds an item to list and returns it with the server-assigned id.
// Any id on item is not sent.
func (c *Client) CreateItem(ctx context.Context, list models.ListName, item models.Item) (models.Item, error) {
	seg := list.PathSegment()
	op := "create " + seg
	item = models.Normalize(item)
	var out createResponse
	err := c.doJSON(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/api/admin/portfolio/" + seg,
		route:  "/api/admin/portfolio/" + seg,
		admin:  true,
	}, item.WithID(""), &out)
	if err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, apperr.New(apperr.ErrServer, op, "server did not return the created item")
	}
	created, err := list.DecodeItem(out.Data)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.ErrServer, Op: op, Message: "malformed response", Err: err}
	}
	if created.ItemID() == "" {
		return nil, apperr.New(apperr.ErrServer, op, "server did not assign an id")
	}
	return created, nil
}

// UpdateItem replaces the item with item.ItemID() in list.
func (c *Client) UpdateItem(ctx context.Context, list models.ListName, item models.Item) error {
	seg := list.PathSegment()
	if item.ItemID() == "" {
		return apperr.Validation("update "+seg, "item has no id")
	}
	item = models.Normalize(item)
	return c.doJSON(ctx, request{
		op:     "update " + seg,
		method: http.MethodPut,
		path:   "/api/admin/portfolio/" + seg + "/" + url.PathEscape(item.ItemID()),
		route:  "/api/admin/portfolio/" + seg + "/{id}",
		admin:  true,
	}, item, nil)
}

// DeleteItem removes the item with id from list.
func (c *Client) DeleteItem(ctx context.Context, list models.ListName, id string) error {
	seg := list.PathSegment()
	if id == "" {
		return apperr.Validation("delete "+seg, "item has no id")
	}
	return c.doJSON(ctx, request{
		op:     "delete " + seg,
		method: http.MethodDelete,
		path:   "/api/admin/portfolio/" + seg + "/" + url.PathEscape(id),
		route:  "/api/admin/portfolio/" + seg + "/{id}",
		admin:  true,
	}, nil, nil)
}
