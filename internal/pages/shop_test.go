package pages

import (
	"context"
	"testing"
	"time"

	"github.com/pinchtab/pagewright/internal/expect"
	"github.com/pinchtab/pagewright/internal/session/sessiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopBase = "https://shop.test"

func openLogin(t *testing.T) (*LoginPage, *sessiontest.Page) {
	t.Helper()
	p := sessiontest.NewDriver(sessiontest.ShopSite(shopBase)...).NewPage()
	x := &expect.Expecter{Timeout: 200 * time.Millisecond, Interval: 10 * time.Millisecond}
	login := NewLoginPage(p, sessiontest.ShopLoginURL(shopBase), x)
	require.NoError(t, login.Navigate(context.Background()))
	return login, p
}

func signedIn(t *testing.T) *ShopPage {
	t.Helper()
	login, _ := openLogin(t)
	ctx := context.Background()
	require.NoError(t, login.VerifyLoaded(ctx))
	require.NoError(t, login.Login(ctx, sessiontest.ShopUser, sessiontest.ShopPassword))
	shop := login.Shop()
	require.NoError(t, shop.VerifyLoaded(ctx))
	return shop
}

func TestCheckoutFlow(t *testing.T) {
	ctx := context.Background()
	shop := signedIn(t)

	require.NoError(t, shop.VerifyProduct(ctx, "iphone X", "$24.99"))
	require.NoError(t, shop.AddToCart(ctx, "iphone X"))
	require.NoError(t, shop.VerifyCartCounter(ctx, 1))

	cart, err := shop.OpenCart(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, cart.VerifyLoaded(ctx))
	require.NoError(t, cart.VerifyProduct(ctx, "iphone X"))
	require.NoError(t, cart.VerifyQuantity(ctx, "iphone X", "1"))
	require.NoError(t, cart.VerifyPrice(ctx, "iphone X", "₹. 100000"))
	require.NoError(t, cart.VerifyTotal(ctx, "₹. 100000"))

	checkout, err := cart.ProceedToCheckout(ctx)
	require.NoError(t, err)
	require.NoError(t, checkout.CompleteCheckout(ctx, "ind", "India"))
}

func TestCartWithSeveralProducts(t *testing.T) {
	ctx := context.Background()
	shop := signedIn(t)

	for _, name := range []string{"iphone X", "Samsung Note 8", "Nokia Edge"} {
		require.NoError(t, shop.AddToCart(ctx, name))
	}
	n, err := shop.CartCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cart, err := shop.OpenCart(ctx, 3)
	require.NoError(t, err)
	count, err := cart.ProductCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.NoError(t, cart.VerifyTotal(ctx, "₹. 250000"))

	require.NoError(t, cart.RemoveProduct(ctx, "Samsung Note 8"))
	count, err = cart.ProductCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NoError(t, cart.VerifyTotal(ctx, "₹. 165000"))

	shop, err = cart.ContinueShopping(ctx)
	require.NoError(t, err)
	require.NoError(t, shop.VerifyCartCounter(ctx, 2))
}

func TestPurchaseNeedsTerms(t *testing.T) {
	ctx := context.Background()
	shop := signedIn(t)
	require.NoError(t, shop.AddToCart(ctx, "Blackberry"))
	cart, err := shop.OpenCart(ctx, 1)
	require.NoError(t, err)
	checkout, err := cart.ProceedToCheckout(ctx)
	require.NoError(t, err)

	require.NoError(t, checkout.ChooseCountry(ctx, "ind", "India"))
	require.NoError(t, checkout.VerifyDelivery(ctx, "India"))
	require.NoError(t, checkout.Purchase(ctx))
	assert.True(t, expect.IsAssertionFailure(checkout.VerifySuccess(ctx)))
}

func TestInvalidLoginStaysOnLoginPage(t *testing.T) {
	login, _ := openLogin(t)
	ctx := context.Background()

	require.NoError(t, login.Login(ctx, "nobody", "wrong"))
	require.NoError(t, login.VerifyInvalidLogin(ctx))
	assert.Error(t, login.Shop().VerifyLoaded(ctx))
}

func TestSelectUserRole(t *testing.T) {
	login, p := openLogin(t)
	ctx := context.Background()

	require.NoError(t, login.SelectUserRole(ctx, "user"))
	assert.Contains(t, p.Actions(), `check role=radio[name="User"]`)
	assert.Error(t, login.SelectUserRole(ctx, "Guest"))
}
