package pages

import (
	"context"

	"github.com/pinchtab/pagewright/internal/expect"
	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

// CartPage is the cart table shown after opening the checkout link.
type CartPage struct {
	page session.Page
	x    *expect.Expecter
}

func NewCartPage(p session.Page, x *expect.Expecter) *CartPage {
	return &CartPage{page: p, x: x}
}

func (c *CartPage) VerifyLoaded(ctx context.Context) error {
	return c.x.Locator(c.page.GetByRole("table", locate.Any())).ToBeVisible(ctx)
}

// ProductRow locates the table row mentioning name.
func (c *CartPage) ProductRow(name string) session.Locator {
	return c.page.GetByRole("row", locate.Any()).Filter(locate.Contains(name))
}

// VerifyProduct checks the row shows the product and its stock status.
func (c *CartPage) VerifyProduct(ctx context.Context, name string) error {
	row := c.ProductRow(name)
	if err := c.x.Locator(row).ToBeVisible(ctx); err != nil {
		return err
	}
	if err := c.x.Locator(row.GetByText(locate.Contains(name))).ToBeVisible(ctx); err != nil {
		return err
	}
	return c.x.Locator(row.GetByText(locate.Contains("In Stock"))).ToBeVisible(ctx)
}

func (c *CartPage) Quantity(ctx context.Context, name string) (string, error) {
	return c.ProductRow(name).GetByRole("spinbutton", locate.Any()).Value(ctx)
}

func (c *CartPage) VerifyQuantity(ctx context.Context, name, qty string) error {
	return c.x.Locator(c.ProductRow(name).GetByRole("spinbutton", locate.Any())).ToHaveValue(ctx, qty)
}

// VerifyPrice checks the first price cell of the row shows price.
func (c *CartPage) VerifyPrice(ctx context.Context, name, price string) error {
	return c.x.Locator(c.ProductRow(name).GetByText(locate.Contains(price)).First()).ToBeVisible(ctx)
}

// VerifyTotal checks a heading shows the cart total, e.g. "₹. 100000".
func (c *CartPage) VerifyTotal(ctx context.Context, total string) error {
	return c.x.Locator(c.page.GetByRole("heading", locate.Contains(total))).ToBeVisible(ctx)
}

func (c *CartPage) RemoveProduct(ctx context.Context, name string) error {
	return c.ProductRow(name).GetByRole("button", locate.Exact("Remove")).Click(ctx)
}

// ProductCount counts rows carrying a price, less the total row.
func (c *CartPage) ProductCount(ctx context.Context) (int, error) {
	n, err := c.page.GetByRole("row", locate.Any()).Filter(locate.Contains("₹.")).Count(ctx)
	if err != nil {
		return 0, err
	}
	return max(n-1, 0), nil
}

func (c *CartPage) ContinueShopping(ctx context.Context) (*ShopPage, error) {
	if err := c.page.GetByRole("button", locate.Exact("Continue Shopping")).Click(ctx); err != nil {
		return nil, err
	}
	return NewShopPage(c.page, c.x), nil
}

func (c *CartPage) ProceedToCheckout(ctx context.Context) (*CheckoutPage, error) {
	if err := c.page.GetByRole("button", locate.Exact("Checkout")).Click(ctx); err != nil {
		return nil, err
	}
	return NewCheckoutPage(c.page, c.x), nil
}
