package pages

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pinchtab/pagewright/internal/expect"
	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

// ShopPage is the product grid reached after signing in.
type ShopPage struct {
	page session.Page
	x    *expect.Expecter
}

func NewShopPage(p session.Page, x *expect.Expecter) *ShopPage {
	return &ShopPage{page: p, x: x}
}

// VerifyLoaded checks URL, title and the shop heading.
func (s *ShopPage) VerifyLoaded(ctx context.Context) error {
	if err := s.x.PageToHaveURL(ctx, s.page, `.*/shop$`); err != nil {
		return err
	}
	if err := s.x.PageToHaveTitle(ctx, s.page, locate.Exact("ProtoCommerce")); err != nil {
		return err
	}
	return s.x.Locator(s.page.GetByRole("heading", locate.Contains("Shop Name"))).ToBeVisible(ctx)
}

// ProductCard locates the card whose text mentions name.
func (s *ShopPage) ProductCard(name string) session.Locator {
	return s.page.Locator("app-card").Filter(locate.Contains(name))
}

// VerifyProduct checks the card, its heading and its price are visible.
func (s *ShopPage) VerifyProduct(ctx context.Context, name, price string) error {
	card := s.ProductCard(name)
	if err := s.x.Locator(card).ToBeVisible(ctx); err != nil {
		return err
	}
	if err := s.x.Locator(card.GetByRole("heading", locate.Contains(name))).ToBeVisible(ctx); err != nil {
		return err
	}
	return s.x.Locator(card.GetByText(locate.Contains(price))).ToBeVisible(ctx)
}

func (s *ShopPage) AddToCart(ctx context.Context, name string) error {
	return s.ProductCard(name).GetByRole("button", locate.Pattern("Add")).Click(ctx)
}

// CheckoutLink locates the navbar link showing n items.
func (s *ShopPage) CheckoutLink(n int) session.Locator {
	return s.page.GetByText(locate.Contains(fmt.Sprintf("Checkout ( %d )", n)))
}

func (s *ShopPage) VerifyCartCounter(ctx context.Context, n int) error {
	return s.x.Locator(s.CheckoutLink(n)).ToBeVisible(ctx)
}

// CartCount parses the number shown in the navbar checkout link.
func (s *ShopPage) CartCount(ctx context.Context) (int, error) {
	text, err := s.page.GetByText(locate.Contains("Checkout (")).Text(ctx)
	if err != nil {
		return 0, err
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, text)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("cart counter %q: %w", text, err)
	}
	return n, nil
}

// OpenCart clicks the checkout link showing n items.
func (s *ShopPage) OpenCart(ctx context.Context, n int) (*CartPage, error) {
	if err := s.CheckoutLink(n).Click(ctx); err != nil {
		return nil, err
	}
	return NewCartPage(s.page, s.x), nil
}
