package pages

import (
	"context"

	"github.com/pinchtab/pagewright/internal/expect"
	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

const (
	PurchaseSuccess      = "Success!"
	PurchaseConfirmation = "Thank you! Your order will be delivered in next few weeks :-)"
)

// CheckoutPage is the delivery and purchase form.
type CheckoutPage struct {
	page session.Page
	x    *expect.Expecter
}

func NewCheckoutPage(p session.Page, x *expect.Expecter) *CheckoutPage {
	return &CheckoutPage{page: p, x: x}
}

func (c *CheckoutPage) delivery() session.Locator {
	return c.page.GetByRole("textbox", locate.Contains("Please choose your delivery location"))
}

func (c *CheckoutPage) terms() session.Locator {
	return c.page.GetByRole("checkbox", locate.Pattern("I agree with the term"))
}

func (c *CheckoutPage) FillDelivery(ctx context.Context, query string) error {
	return c.delivery().Fill(ctx, query)
}

// SelectCountry clicks the first suggestion mentioning country. The
// suggestion list renders asynchronously; the click's implicit wait covers
// it.
func (c *CheckoutPage) SelectCountry(ctx context.Context, country string) error {
	return c.page.GetByText(locate.Contains(country)).First().Click(ctx)
}

// ChooseCountry types query into the delivery field and picks country from
// the suggestions.
func (c *CheckoutPage) ChooseCountry(ctx context.Context, query, country string) error {
	if err := c.FillDelivery(ctx, query); err != nil {
		return err
	}
	return c.SelectCountry(ctx, country)
}

func (c *CheckoutPage) VerifyDelivery(ctx context.Context, country string) error {
	return c.x.Locator(c.delivery()).ToHaveValue(ctx, country)
}

// AgreeToTerms clicks the terms label, which toggles its checkbox.
func (c *CheckoutPage) AgreeToTerms(ctx context.Context) error {
	return c.page.GetByText(locate.Contains("I agree with the term & Conditions")).Click(ctx)
}

func (c *CheckoutPage) VerifyTermsAccepted(ctx context.Context) error {
	return c.x.Locator(c.terms()).ToBeChecked(ctx)
}

func (c *CheckoutPage) Purchase(ctx context.Context) error {
	return c.page.GetByRole("button", locate.Exact("Purchase")).Click(ctx)
}

func (c *CheckoutPage) VerifySuccess(ctx context.Context) error {
	if err := c.x.Locator(c.page.GetByText(locate.Contains(PurchaseSuccess))).ToBeVisible(ctx); err != nil {
		return err
	}
	return c.x.Locator(c.page.GetByText(locate.Contains(PurchaseConfirmation))).ToBeVisible(ctx)
}

// CompleteCheckout runs the whole form: choose country, agree, purchase and
// verify each step.
func (c *CheckoutPage) CompleteCheckout(ctx context.Context, query, country string) error {
	steps := []func(context.Context) error{
		func(ctx context.Context) error { return c.ChooseCountry(ctx, query, country) },
		func(ctx context.Context) error { return c.VerifyDelivery(ctx, country) },
		c.AgreeToTerms,
		c.VerifyTermsAccepted,
		c.Purchase,
		c.VerifySuccess,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}
