package api

import (
	"aclue/internal/model"
	"context"
	"net/url"
	"strconv"
)

func (c *Client) Products(ctx context.Context, q model.ProductQuery) ([]model.Product, error) {
	params := url.Values{}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.MinPrice > 0 {
		params.Set("min_price", strconv.FormatFloat(q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice > 0 {
		params.Set("max_price", strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	path := "/products"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out []model.Product
	if err := c.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Product(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	if err := c.Get(ctx, "/products/"+url.PathEscape(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) RecordSwipe(ctx context.Context, s model.Swipe) (*model.Envelope, error) {
	if err := c.validateInput(s); err != nil {
		return nil, err
	}
	return c.Post(ctx, "/swipes", s)
}

func (c *Client) Recommendations(ctx context.Context, limit int) ([]model.Recommendation, error) {
	path := "/recommendations"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out []model.Recommendation
	if err := c.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateGiftLink(ctx context.Context, req model.GiftLinkRequest) (*model.GiftLink, error) {
	if err := c.validateInput(req); err != nil {
		return nil, err
	}

	env, err := c.Post(ctx, "/gift-links", req)
	if err != nil {
		return nil, err
	}

	var link model.GiftLink
	if err := env.Decode(&link); err != nil {
		return nil, c.handleError(err)
	}
	return &link, nil
}

func (c *Client) GiftLink(ctx context.Context, token string) (*model.GiftLink, error) {
	var link model.GiftLink
	if err := c.Get(ctx, "/gift-links/"+url.PathEscape(token), &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// TrackEvent is fire-and-forget for callers that ignore the error.
func (c *Client) TrackEvent(ctx context.Context, e model.AnalyticsEvent) error {
	if err := c.validateInput(e); err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = c.now().UTC()
	}

	_, err := c.Post(ctx, "/analytics/events", e)
	return err
}
