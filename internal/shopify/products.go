package shopify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type Product struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Handle          string `json:"handle"`
	Status          string `json:"status"`
	DescriptionHTML string `json:"descriptionHtml"`
}

type graphQLError struct {
	Message string `json:"message"`
}

const productQuery = `query Product($id: ID!) {
  product(id: $id) {
    id
    title
    handle
    status
    descriptionHtml
  }
}`

// GetProduct looks up one product over the GraphQL Admin API. Accepts either
// a full gid or a bare numeric id. A missing product is (nil, nil).
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	gid := productID
	if !strings.HasPrefix(gid, "gid://") {
		gid = "gid://shopify/Product/" + gid
	}

	body := map[string]any{
		"query":     productQuery,
		"variables": map[string]any{"id": gid},
	}
	var out struct {
		Data struct {
			Product *Product `json:"product"`
		} `json:"data"`
		Errors []graphQLError `json:"errors"`
	}
	if err := c.do(ctx, http.MethodPost, "/graphql.json", nil, body, &out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("product query: %s", out.Errors[0].Message)
	}
	return out.Data.Product, nil
}
